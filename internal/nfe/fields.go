// =============================================================================
// XML to JSON Converter - NFe Field Table
// =============================================================================
//
// This module lists the summary fields of an NFe and where each one may be
// found in a converted document.
//
// CANDIDATE ROOTS:
//   nfeProc.NFe.infNFe     - authorized invoice with protocol
//   NFe.infNFe             - invoice without protocol
//   enviNFe.NFe.0.infNFe   - first invoice of a submission batch
//   infNFe                 - bare infNFe group
//
// EXPECTED FIELDS:
//   chave_nfe, numero, serie, data_emissao, emitente_nome, emitente_cnpj
//   and valor_total are reported as missing when no path resolves. The
//   other fields are simply null.
//
// =============================================================================

package nfe

// Kind selects how a located value is normalized.
type Kind int

const (
	KindText Kind = iota
	KindDigits
	KindMoney
	KindQuantity
	KindDate
	KindCNPJ
	KindCPF
	KindCEP
	KindChave
	KindAddress
)

// Field describes one key of the summary record.
type Field struct {
	// Name is the record key.
	Name string

	// Kind is the normalization applied to the value found.
	Kind Kind

	// Width left-pads digit kinds whose leading zeros were lost.
	Width int

	// Expected fields are reported as missing when no path resolves.
	Expected bool

	// Paths are tried in order; the first non-null value wins.
	Paths []Path
}

// =============================================================================
// CANDIDATE ROOTS
// =============================================================================

var (
	infNFeRoots = []string{
		"nfeProc.NFe.infNFe",
		"NFe.infNFe",
		"enviNFe.NFe.0.infNFe",
		"infNFe",
	}
	protocolRoots = []string{
		"nfeProc.protNFe.infProt",
		"protNFe.infProt",
	}
)

// under returns rel joined to each root, for each relative path in order.
func under(roots []string, rels ...string) []Path {
	paths := make([]Path, 0, len(roots)*len(rels))
	for _, rel := range rels {
		for _, root := range roots {
			paths = append(paths, ParsePath(root).Join(rel))
		}
	}
	return paths
}

// =============================================================================
// FIELD TABLES
// =============================================================================

// DefaultFieldTable returns the summary fields in record order.
//
// RETURNS:
//   - One Field per record key. Each field's paths are tried under every
//     candidate root before the next relative path is tried.
func DefaultFieldTable() []Field {
	inf := func(rels ...string) []Path { return under(infNFeRoots, rels...) }
	prot := func(rels ...string) []Path { return under(protocolRoots, rels...) }

	return []Field{
		{Name: "chave_nfe", Kind: KindChave, Expected: true, Paths: append(
			inf("@attributes.Id", "@Id"),
			prot("chNFe")...,
		)},
		{Name: "numero", Kind: KindText, Expected: true, Paths: inf("ide.nNF")},
		{Name: "serie", Kind: KindText, Expected: true, Paths: inf("ide.serie")},
		{Name: "modelo", Kind: KindText, Paths: inf("ide.mod")},
		{Name: "data_emissao", Kind: KindDate, Expected: true, Paths: inf("ide.dhEmi", "ide.dEmi")},
		{Name: "natureza_operacao", Kind: KindText, Paths: inf("ide.natOp")},
		{Name: "codigo_uf", Kind: KindDigits, Width: 2, Paths: inf("ide.cUF")},

		{Name: "emitente_nome", Kind: KindText, Expected: true, Paths: inf("emit.xNome")},
		{Name: "emitente_fantasia", Kind: KindText, Paths: inf("emit.xFant")},
		{Name: "emitente_cnpj", Kind: KindCNPJ, Width: 14, Expected: true, Paths: inf("emit.CNPJ")},
		{Name: "emitente_cpf", Kind: KindCPF, Width: 11, Paths: inf("emit.CPF")},
		{Name: "emitente_inscricao_estadual", Kind: KindText, Paths: inf("emit.IE")},
		{Name: "emitente_endereco", Kind: KindAddress, Paths: inf("emit.enderEmit")},
		{Name: "emitente_bairro", Kind: KindText, Paths: inf("emit.enderEmit.xBairro")},
		{Name: "emitente_municipio", Kind: KindText, Paths: inf("emit.enderEmit.xMun")},
		{Name: "emitente_uf", Kind: KindText, Paths: inf("emit.enderEmit.UF")},
		{Name: "emitente_cep", Kind: KindCEP, Width: 8, Paths: inf("emit.enderEmit.CEP")},

		{Name: "destinatario_nome", Kind: KindText, Paths: inf("dest.xNome")},
		{Name: "destinatario_cnpj", Kind: KindCNPJ, Width: 14, Paths: inf("dest.CNPJ")},
		{Name: "destinatario_cpf", Kind: KindCPF, Width: 11, Paths: inf("dest.CPF")},
		{Name: "destinatario_endereco", Kind: KindAddress, Paths: inf("dest.enderDest")},
		{Name: "destinatario_bairro", Kind: KindText, Paths: inf("dest.enderDest.xBairro")},
		{Name: "destinatario_municipio", Kind: KindText, Paths: inf("dest.enderDest.xMun")},
		{Name: "destinatario_uf", Kind: KindText, Paths: inf("dest.enderDest.UF")},
		{Name: "destinatario_cep", Kind: KindCEP, Width: 8, Paths: inf("dest.enderDest.CEP")},

		{Name: "valor_total", Kind: KindMoney, Expected: true, Paths: inf("total.ICMSTot.vNF")},
		{Name: "valor_produtos", Kind: KindMoney, Paths: inf("total.ICMSTot.vProd")},
		{Name: "valor_icms", Kind: KindMoney, Paths: inf("total.ICMSTot.vICMS")},
		{Name: "valor_ipi", Kind: KindMoney, Paths: inf("total.ICMSTot.vIPI")},
		{Name: "valor_pis", Kind: KindMoney, Paths: inf("total.ICMSTot.vPIS")},
		{Name: "valor_cofins", Kind: KindMoney, Paths: inf("total.ICMSTot.vCOFINS")},

		{Name: "numero_protocolo", Kind: KindDigits, Paths: prot("nProt")},
		{Name: "data_autorizacao", Kind: KindDate, Paths: prot("dhRecbto")},
		{Name: "status_codigo", Kind: KindText, Paths: prot("cStat")},
		{Name: "status_descricao", Kind: KindText, Paths: prot("xMotivo")},
	}
}

// ItemFieldTable returns the per-product fields, relative to a det entry.
func ItemFieldTable() []Field {
	return []Field{
		{Name: "numero_item", Kind: KindText, Paths: []Path{ParsePath("@attributes.nItem"), ParsePath("@nItem")}},
		{Name: "codigo", Kind: KindText, Paths: []Path{ParsePath("prod.cProd")}},
		{Name: "descricao", Kind: KindText, Paths: []Path{ParsePath("prod.xProd")}},
		{Name: "ncm", Kind: KindDigits, Width: 8, Paths: []Path{ParsePath("prod.NCM")}},
		{Name: "cfop", Kind: KindDigits, Width: 4, Paths: []Path{ParsePath("prod.CFOP")}},
		{Name: "unidade", Kind: KindText, Paths: []Path{ParsePath("prod.uCom")}},
		{Name: "quantidade", Kind: KindQuantity, Paths: []Path{ParsePath("prod.qCom")}},
		{Name: "valor_unitario", Kind: KindMoney, Paths: []Path{ParsePath("prod.vUnCom")}},
		{Name: "valor_total", Kind: KindMoney, Paths: []Path{ParsePath("prod.vProd")}},
	}
}

// itemListPaths locate the det entries.
func itemListPaths() []Path {
	return under(infNFeRoots, "det")
}

// infNFePaths locate the infNFe node itself.
func infNFePaths() []Path {
	return under(infNFeRoots, "")
}
