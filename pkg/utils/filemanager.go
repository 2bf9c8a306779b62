// =============================================================================
// XML to JSON Converter - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the converter, including:
//   - Input discovery (glob patterns, optionally recursive)
//   - Output naming (mirrored directory layout, name templates)
//   - Output collision handling (overwrite, skip, unique suffix)
//   - Backups of existing files before they are replaced
//   - Error and summary logs for batch runs
//
// OUTPUT LAYOUT:
//   input/2024/01/nota.xml  ->  output/2024/01/nota.json
//   Files from different input directories never share an output name.
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CollisionPolicy decides what happens when an output file already exists.
type CollisionPolicy string

const (
	CollisionOverwrite CollisionPolicy = "overwrite"
	CollisionSkip      CollisionPolicy = "skip"
	CollisionSuffix    CollisionPolicy = "suffix"
)

// ErrOutputExists is returned by ResolveOutput under CollisionSkip.
var ErrOutputExists = errors.New("output file already exists")

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the converter.
type FileManager struct {
	// InputRoot is the directory inputs are discovered under. Output paths
	// mirror the layout below it.
	InputRoot string

	// OutputDir receives the output files. Empty writes each output next to
	// its input.
	OutputDir string

	// NameFormat is the output file name template.
	// Placeholders: {stem}, {uuid}, {timestamp}
	// Default: "{stem}.json"
	NameFormat string

	// Collision is the policy for existing output files.
	// Default: CollisionOverwrite
	Collision CollisionPolicy

	// BackupSuffix is appended to backup copies.
	// Default: ".bak"
	BackupSuffix string
}

// NewFileManager creates a new FileManager with default naming.
func NewFileManager(inputRoot, outputDir string) *FileManager {
	return &FileManager{
		InputRoot:    inputRoot,
		OutputDir:    outputDir,
		NameFormat:   "{stem}.json",
		Collision:    CollisionOverwrite,
		BackupSuffix: ".bak",
	}
}

// EnsureDirectories creates the output directory if it doesn't exist.
func (fm *FileManager) EnsureDirectories() error {
	if fm.OutputDir == "" {
		return nil
	}
	if err := os.MkdirAll(fm.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", fm.OutputDir, err)
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// Discover lists files under InputRoot whose base name matches any of the
// glob patterns, case-insensitively. The result is sorted.
//
// PARAMETERS:
//   - patterns: Glob patterns such as "*.xml". Empty means "*.xml".
//   - recursive: Descend into subdirectories.
//
// RETURNS:
//   - A slice of file paths.
//   - An error if a pattern is malformed or the directory cannot be read.
func (fm *FileManager) Discover(patterns []string, recursive bool) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{"*.xml"}
	}
	for _, p := range patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
	}

	var files []string
	err := filepath.WalkDir(fm.InputRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != fm.InputRoot && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if matchesAny(d.Name(), patterns) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	sort.Strings(files)
	return files, nil
}

func matchesAny(name string, patterns []string) bool {
	lower := strings.ToLower(name)
	for _, p := range patterns {
		if ok, _ := filepath.Match(strings.ToLower(p), lower); ok {
			return true
		}
	}
	return false
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// OutputPath returns where the JSON for input goes, before collision
// handling.
func (fm *FileManager) OutputPath(input string) string {
	base := filepath.Base(input)
	return fm.outputPathWithStem(input, strings.TrimSuffix(base, filepath.Ext(base)))
}

// OutputPaths returns one output path per input, in input order. Inputs
// that would share a path (nota.xml and nota.nfe) keep their extension in
// the stem, so the second becomes nota.nfe.json; anything still clashing
// gets a short uuid suffix. Paths are compared case-insensitively.
//
// PARAMETERS:
//   - inputs: Files of one run.
//
// RETURNS:
//   - Distinct output paths, before collision handling against existing files.
func (fm *FileManager) OutputPaths(inputs []string) []string {
	paths := make([]string, len(inputs))
	taken := make(map[string]bool, len(inputs))
	claim := func(i int, path string) bool {
		key := strings.ToLower(filepath.Clean(path))
		if taken[key] {
			return false
		}
		taken[key] = true
		paths[i] = path
		return true
	}

	var clashes []int
	for i, input := range inputs {
		if !claim(i, fm.OutputPath(input)) {
			clashes = append(clashes, i)
		}
	}
	for _, i := range clashes {
		base := filepath.Base(inputs[i])
		if claim(i, fm.outputPathWithStem(inputs[i], base)) {
			continue
		}
		for {
			if claim(i, fm.outputPathWithStem(inputs[i], base+"_"+uuid.New().String()[:8])) {
				break
			}
		}
	}
	return paths
}

func (fm *FileManager) outputPathWithStem(input, stem string) string {
	format := fm.NameFormat
	if format == "" {
		format = "{stem}.json"
	}
	name := GenerateOutputFileName(format, map[string]string{"stem": stem})

	if fm.OutputDir == "" {
		return filepath.Join(filepath.Dir(input), name)
	}

	dir := fm.OutputDir
	if fm.InputRoot != "" {
		if rel, err := filepath.Rel(fm.InputRoot, filepath.Dir(input)); err == nil && !strings.HasPrefix(rel, "..") {
			dir = filepath.Join(fm.OutputDir, rel)
		}
	}
	return filepath.Join(dir, name)
}

// ResolveOutput applies the collision policy to path.
//
// RETURNS:
//   - The path to write to.
//   - ErrOutputExists when the policy is CollisionSkip and path exists.
func (fm *FileManager) ResolveOutput(path string) (string, error) {
	if !FileExists(path) {
		return path, nil
	}
	switch fm.Collision {
	case CollisionSkip:
		return "", fmt.Errorf("%s: %w", path, ErrOutputExists)
	case CollisionSuffix:
		ext := filepath.Ext(path)
		stem := strings.TrimSuffix(path, ext)
		for {
			candidate := fmt.Sprintf("%s_%s%s", stem, uuid.New().String()[:8], ext)
			if !FileExists(candidate) {
				return candidate, nil
			}
		}
	}
	return path, nil
}

// GenerateOutputFileName expands a name template.
//
// PARAMETERS:
//   - format: Template with {name} placeholders.
//   - params: Values for custom placeholders.
//
// BUILT-IN PLACEHOLDERS:
//   {uuid}      - A random UUID
//   {timestamp} - Current time as YYYYMMDD_HHMMSS
//
// EXAMPLE:
//   GenerateOutputFileName("{stem}_{timestamp}.json", map[string]string{"stem": "nota"})
//   -> "nota_20240115_103000.json"
func GenerateOutputFileName(format string, params map[string]string) string {
	result := format
	if strings.Contains(result, "{uuid}") {
		result = strings.ReplaceAll(result, "{uuid}", uuid.New().String())
	}
	if strings.Contains(result, "{timestamp}") {
		result = strings.ReplaceAll(result, "{timestamp}", time.Now().Format("20060102_150405"))
	}
	for key, value := range params {
		result = strings.ReplaceAll(result, "{"+key+"}", value)
	}
	return result
}

// =============================================================================
// BACKUPS
// =============================================================================

// BackupFile copies path to path+BackupSuffix, replacing an older backup.
// A missing source is not an error; the returned path is then empty.
func (fm *FileManager) BackupFile(path string) (string, error) {
	if !FileExists(path) {
		return "", nil
	}
	suffix := fm.BackupSuffix
	if suffix == "" {
		suffix = ".bak"
	}
	backup := path + suffix
	if err := copyFile(path, backup); err != nil {
		return "", fmt.Errorf("failed to back up %s: %w", path, err)
	}
	return backup, nil
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single error log entry.
type ErrorLogEntry struct {
	Timestamp    time.Time
	FileName     string
	ErrorType    string
	ErrorMessage string
	Line         int
	Column       int
}

// WriteErrorLog writes error entries to a timestamped log file in outputDir.
//
// RETURNS:
//   - The path to the error log file, or "" when there are no entries.
//   - An error if writing fails.
func WriteErrorLog(entries []ErrorLogEntry, outputDir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	logPath := filepath.Join(outputDir, fmt.Sprintf("error_log_%s.txt", time.Now().Format("20060102_150405")))
	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "XML to JSON Converter - Error Log\nGenerated: %s\nTotal Errors: %d\n%s\n\n",
		time.Now().Format("2006-01-02 15:04:05"), len(entries), rule)

	for i, entry := range entries {
		fmt.Fprintf(w, "Error #%d\n", i+1)
		fmt.Fprintf(w, "  Timestamp:  %s\n", entry.Timestamp.Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "  File:       %s\n", entry.FileName)
		fmt.Fprintf(w, "  Error Type: %s\n", entry.ErrorType)
		fmt.Fprintf(w, "  Message:    %s\n", entry.ErrorMessage)
		if entry.Line > 0 {
			fmt.Fprintf(w, "  Position:   line %d, column %d\n", entry.Line, entry.Column)
		}
		w.WriteString("\n")
	}
	fmt.Fprintf(w, "%s\nEnd of Error Log\n", rule)

	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}
	return logPath, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a batch run.
type ProcessingSummary struct {
	RunID           string
	StartTime       time.Time
	EndTime         time.Time
	TotalFiles      int
	SuccessfulFiles int
	SkippedFiles    int
	FailedFiles     int
	NFeDocuments    int
	ProcessedFiles  []ProcessedFileInfo
	FailedFilesList []FailedFileInfo
}

// ProcessedFileInfo contains information about a successfully processed file.
type ProcessedFileInfo struct {
	InputFile   string
	OutputFile  string
	Elements    int
	ProcessTime time.Duration
}

// FailedFileInfo contains information about a failed file.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
	ErrorType    string
}

const rule = "================================================================================"

// WriteSummaryLog writes a processing summary to a timestamped file in
// outputDir and returns its path.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	summaryPath := filepath.Join(outputDir, fmt.Sprintf("processing_summary_%s.txt", time.Now().Format("20060102_150405")))
	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "XML to JSON Converter - Processing Summary\n%s\n\n", rule)
	fmt.Fprintf(w, "Run Information:\n")
	fmt.Fprintf(w, "  Run ID:         %s\n", summary.RunID)
	fmt.Fprintf(w, "  Start Time:     %s\n", summary.StartTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "  End Time:       %s\n", summary.EndTime.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "  Duration:       %s\n\n", summary.EndTime.Sub(summary.StartTime))
	fmt.Fprintf(w, "Statistics:\n")
	fmt.Fprintf(w, "  Total Files:    %d\n", summary.TotalFiles)
	fmt.Fprintf(w, "  Successful:     %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(w, "  Skipped:        %d\n", summary.SkippedFiles)
	fmt.Fprintf(w, "  Failed:         %d\n", summary.FailedFiles)
	fmt.Fprintf(w, "  NFe Documents:  %d\n\n", summary.NFeDocuments)

	if len(summary.ProcessedFiles) > 0 {
		fmt.Fprintf(w, "Successful Files:\n%s\n", strings.Repeat("-", len(rule)))
		for _, pf := range summary.ProcessedFiles {
			fmt.Fprintf(w, "  Input:        %s\n", pf.InputFile)
			fmt.Fprintf(w, "  Output:       %s\n", pf.OutputFile)
			fmt.Fprintf(w, "  Elements:     %d\n", pf.Elements)
			fmt.Fprintf(w, "  Process Time: %s\n\n", pf.ProcessTime)
		}
	}

	if len(summary.FailedFilesList) > 0 {
		fmt.Fprintf(w, "Failed Files:\n%s\n", strings.Repeat("-", len(rule)))
		for _, ff := range summary.FailedFilesList {
			fmt.Fprintf(w, "  File:  %s\n", ff.InputFile)
			fmt.Fprintf(w, "  Error: %s\n\n", ff.ErrorMessage)
		}
	}

	fmt.Fprintf(w, "%s\nEnd of Summary\n", rule)
	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}
	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
