package parser

import (
	"context"
	"strings"

	"github.com/FelipeCGomes/leitorxml/internal/fiscal/utils"
	"github.com/FelipeCGomes/leitorxml/internal/store"
	"github.com/beevik/etree"
)

// ParseNFe parses one NF-e XML into its header plus line items. The
// flow classification is computed here, at parse time, so the stored
// header already carries it.
func (p *Parser) ParseNFe(ctx context.Context, raw []byte, filename string) (*store.InvoiceHeader, []store.InvoiceItem, *ParseError) {
	doc, err := p.read(raw)
	if err != nil {
		return nil, nil, errorf("XML NFe Inválido")
	}

	inf := doc.FindElement("//infNFe")
	if inf == nil {
		return nil, nil, errorf("XML NFe Inválido")
	}

	ide := inf.FindElement("ide")
	em := inf.FindElement("emit")
	dest := inf.FindElement("dest")
	tot := inf.FindElement(".//ICMSTot")
	tr := inf.FindElement("transp")
	if ide == nil || em == nil {
		return nil, nil, errorf("Dados Incompletos")
	}

	date := brDate(findText(ide, "dhEmi"))

	var grossWeight float64
	if tr != nil {
		for _, v := range tr.FindElements("vol") {
			grossWeight += utils.ParseFloat(findText(v, "pesoB"))
		}
	}

	recipientName := "Consumidor"
	recipientCNPJ := ""
	destUF := ""
	destCEP := ""
	destCity := "ND"
	if dest != nil {
		if n := findText(dest, "xNome"); n != "" {
			recipientName = n
		}
		recipientCNPJ = findText(dest, "CNPJ")
		destUF = findText(dest, "enderDest/UF")
		destCEP = findText(dest, "enderDest/CEP")
		destCity = addressCity(dest, "enderDest")
	}

	issuerCNPJ := findText(em, "CNPJ")
	cfop := findText(inf, "det/prod/CFOP")

	header := &store.InvoiceHeader{
		InvoiceKey:      strings.ReplaceAll(inf.SelectAttrValue("Id", ""), "NFe", ""),
		IssueDate:       date,
		Number:          findText(ide, "nNF"),
		IssuerName:      findText(em, "xNome"),
		RecipientName:   recipientName,
		IssuerCNPJ:      issuerCNPJ,
		RecipientCNPJ:   recipientCNPJ,
		DestinationUF:   destUF,
		TotalValue:      utils.ParseFloat(findText(tot, "vNF")),
		GrossWeightKg:   grossWeight,
		CarrierName:     findText(tr, "transporta/xNome"),
		OriginCity:      addressCity(em, "enderEmit"),
		DestinationCity: destCity,
		FreightMode:     findText(tr, "modFrete"),
		MainCFOP:        cfop,
		OperationType:   p.classifier.Classify(ctx, cfop, issuerCNPJ, recipientCNPJ),
		ItemCount:       len(inf.FindElements(".//det")),
		OriginCEP:       findText(em, "enderEmit/CEP"),
		DestinationCEP:  destCEP,
		DistanceKm:      0,
		SourceFile:      filename,
	}

	items := p.parseItems(inf, filename)
	return header, items, nil
}

func (p *Parser) parseItems(inf *etree.Element, filename string) []store.InvoiceItem {
	key := strings.ReplaceAll(inf.SelectAttrValue("Id", ""), "NFe", "")
	number := findText(inf, "ide/nNF")
	issuer := findText(inf, "emit/xNome")

	var items []store.InvoiceItem
	for _, d := range inf.FindElements("det") {
		prod := d.FindElement("prod")
		if prod == nil {
			continue
		}
		qty := utils.ParseFloat(findText(prod, "qCom"))
		items = append(items, store.InvoiceItem{
			InvoiceKey:      key,
			InvoiceNumber:   number,
			IssuerName:      issuer,
			ItemNumber:      d.SelectAttrValue("nItem", ""),
			Product:         findText(prod, "xProd"),
			NCM:             findText(prod, "NCM"),
			CFOP:            findText(prod, "CFOP"),
			Unit:            findText(prod, "uCom"),
			QuantityDisplay: utils.BRWeight(qty),
			Quantity:        qty,
			TotalValue:      utils.ParseFloat(findText(prod, "vProd")),
			SourceFile:      filename,
		})
	}
	return items
}

func addressCity(parent *etree.Element, addressTag string) string {
	addr := parent.FindElement(addressTag)
	if addr == nil {
		return ""
	}
	return findText(addr, "xMun") + "-" + findText(addr, "UF")
}
