package parser

import (
	"strings"

	"github.com/FelipeCGomes/leitorxml/internal/fiscal/utils"
	"github.com/FelipeCGomes/leitorxml/internal/store"
	"github.com/beevik/etree"
)

// Toll charges hide inside generic service components; there is no coded
// field for them, only the component description. Known fragility.
var tollKeywords = []string{"PEDAGIO", "VALE"}

func isTollComponent(name string) bool {
	upper := strings.ToUpper(name)
	for _, kw := range tollKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

// ParseCTe parses one CT-e XML into one TransportLine per linked NF-e.
// A CT-e that references no invoice still yields a single line with an
// empty invoice key, so the document itself is not lost. Freight, toll
// and cargo weight are document totals repeated on every line.
func (p *Parser) ParseCTe(raw []byte, filename string) ([]store.TransportLine, *ParseError) {
	doc, err := p.read(raw)
	if err != nil {
		return nil, errorf("XML Inválido")
	}

	inf := doc.FindElement("//infCte")
	if inf == nil {
		if doc.FindElement("//retEventoCTe") != nil {
			return nil, infof("Evento de CT-e")
		}
		return nil, errorf("XML Inválido")
	}

	ownKey := strings.ReplaceAll(inf.SelectAttrValue("Id", ""), "CTe", "")
	date := brDate(findText(inf, "ide/dhEmi"))
	typeCode := findText(inf, "ide/tpCTe")

	freight := utils.ParseFloat(findText(inf, ".//vTPrest"))

	// documents may declare cargo weight more than once; all instances
	// count
	var weight float64
	for _, q := range inf.FindElements(".//qCarga") {
		weight += utils.ParseFloat(strings.TrimSpace(q.Text()))
	}

	var toll float64
	for _, c := range inf.FindElements(".//Comp") {
		if isTollComponent(findText(c, "xNome")) {
			toll += utils.ParseFloat(findText(c, "vComp"))
		}
	}

	originCity := cityOrND(findText(inf, "ide/xMunIni"), findText(inf, "ide/UFIni"))

	destMun := findText(inf, "ide/xMunFim")
	destUF := findText(inf, "ide/UFFim")
	if destMun == "" {
		destMun = findText(inf, "dest/enderDest/xMun")
		destUF = findText(inf, "dest/enderDest/UF")
	}
	destCity := cityOrND(destMun, destUF)

	refKey := findText(inf, ".//infCteComp/chCTe")

	keys := linkedInvoiceKeys(inf)

	lines := make([]store.TransportLine, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, store.TransportLine{
			OwnKey:          ownKey,
			InvoiceKey:      k,
			IssueDate:       date,
			Number:          findText(inf, "ide/nCT"),
			IssuerName:      findText(inf, "emit/xNome"),
			IssuerCNPJ:      findText(inf, "emit/CNPJ"),
			SenderName:      findText(inf, "rem/xNome"),
			RecipientName:   findText(inf, "dest/xNome"),
			FreightValue:    freight,
			CargoWeightKg:   weight,
			InvoiceNumber:   utils.InvoiceNumberFromKey(k),
			OriginCity:      originCity,
			DestinationCity: destCity,
			TollValue:       toll,
			RefKey:          refKey,
			TypeCode:        typeCode,
			SourceFile:      filename,
		})
	}
	return lines, nil
}

func cityOrND(municipality, uf string) string {
	if municipality == "" {
		return "ND"
	}
	return municipality + "-" + uf
}

func linkedInvoiceKeys(inf *etree.Element) []string {
	var keys []string
	for _, n := range inf.FindElements(".//infNFe") {
		if k := findText(n, "chave"); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		keys = []string{""}
	}
	return keys
}
