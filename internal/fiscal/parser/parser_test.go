package parser

import (
	"context"
	"testing"

	"github.com/FelipeCGomes/leitorxml/internal/fiscal/classify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownBranch  = "12345678000199"
	thirdParty = "99887766000155"
)

func newTestParser() *Parser {
	return New(classify.New([]string{ownBranch}, nil))
}

const cteXML = `<?xml version="1.0" encoding="UTF-8"?>
<cteProc xmlns="http://www.portalfiscal.inf.br/cte" versao="3.00">
 <CTe>
  <infCte Id="CTe35240111222333000144570010000010011000010017" versao="3.00">
   <ide>
    <cCT>1</cCT>
    <nCT>1001</nCT>
    <tpCTe>0</tpCTe>
    <dhEmi>2024-01-10T08:30:00-03:00</dhEmi>
    <xMunIni>Cuiaba</xMunIni>
    <UFIni>MT</UFIni>
    <xMunFim>Santos</xMunFim>
    <UFFim>SP</UFFim>
   </ide>
   <emit>
    <CNPJ>11222333000144</CNPJ>
    <xNome>Transportes Alfa Ltda</xNome>
   </emit>
   <rem><xNome>Filial Cuiaba</xNome></rem>
   <dest><xNome>Terminal Santos</xNome></dest>
   <vPrest>
    <vTPrest>1234,56</vTPrest>
    <Comp><xNome>FRETE PESO</xNome><vComp>1000.00</vComp></Comp>
    <Comp><xNome>PEDAGIO</xNome><vComp>150.00</vComp></Comp>
    <Comp><xNome>Vale Pedagio</xNome><vComp>84.56</vComp></Comp>
   </vPrest>
   <infCTeNorm>
    <infCarga>
     <infQ><qCarga>12000.0000</qCarga></infQ>
     <infQ><qCarga>3000.0000</qCarga></infQ>
    </infCarga>
    <infDoc>
     <infNFe><chave>35240312345678000199550010000123451000012345</chave></infNFe>
     <infNFe><chave>35240312345678000199550010000123461000012346</chave></infNFe>
    </infDoc>
   </infCTeNorm>
  </infCte>
 </CTe>
</cteProc>`

func TestParseCTe(t *testing.T) {
	p := newTestParser()

	lines, perr := p.ParseCTe([]byte(cteXML), "cte_1001.xml")
	require.Nil(t, perr)
	require.Len(t, lines, 2)

	first := lines[0]
	assert.Equal(t, "35240111222333000144570010000010011000010017", first.OwnKey)
	assert.Equal(t, "1001", first.Number)
	assert.Equal(t, "10/01/2024", first.IssueDate)
	assert.Equal(t, "Transportes Alfa Ltda", first.IssuerName)
	assert.Equal(t, "11222333000144", first.IssuerCNPJ)
	assert.Equal(t, "Filial Cuiaba", first.SenderName)
	assert.Equal(t, "Terminal Santos", first.RecipientName)
	assert.Equal(t, "Cuiaba-MT", first.OriginCity)
	assert.Equal(t, "Santos-SP", first.DestinationCity)
	assert.Equal(t, "0", first.TypeCode)
	assert.Equal(t, "", first.RefKey)
	assert.Equal(t, "cte_1001.xml", first.SourceFile)

	// comma decimal service total
	assert.InDelta(t, 1234.56, first.FreightValue, 1e-9)
	// every qCarga occurrence is summed
	assert.InDelta(t, 15000.0, first.CargoWeightKg, 1e-9)
	// both PEDAGIO and VALE components, case insensitive
	assert.InDelta(t, 234.56, first.TollValue, 1e-9)

	// document totals repeat on every line
	assert.Equal(t, first.FreightValue, lines[1].FreightValue)
	assert.Equal(t, first.CargoWeightKg, lines[1].CargoWeightKg)

	assert.Equal(t, "35240312345678000199550010000123451000012345", first.InvoiceKey)
	assert.Equal(t, "12345", first.InvoiceNumber)
	assert.Equal(t, "12346", lines[1].InvoiceNumber)
}

func TestParseCTeWithoutLinkedInvoices(t *testing.T) {
	p := newTestParser()

	xml := `<CTe><infCte Id="CTeABC"><ide><nCT>77</nCT><tpCTe>0</tpCTe></ide><vPrest><vTPrest>100</vTPrest></vPrest></infCte></CTe>`
	lines, perr := p.ParseCTe([]byte(xml), "loose.xml")
	require.Nil(t, perr)
	require.Len(t, lines, 1)
	assert.Equal(t, "", lines[0].InvoiceKey)
	assert.Equal(t, "", lines[0].InvoiceNumber)
	assert.Equal(t, "ABC", lines[0].OwnKey)
	// municipality absent
	assert.Equal(t, "ND", lines[0].OriginCity)
	assert.Equal(t, "ND", lines[0].DestinationCity)
}

func TestParseCTeComplement(t *testing.T) {
	p := newTestParser()

	xml := `<CTe><infCte Id="CTeCOMP1"><ide><nCT>2002</nCT><tpCTe>1</tpCTe></ide>
	 <vPrest><vTPrest>50</vTPrest></vPrest>
	 <infCteComp><chCTe>35240111222333000144570010000010011000010017</chCTe></infCteComp>
	</infCte></CTe>`
	lines, perr := p.ParseCTe([]byte(xml), "comp.xml")
	require.Nil(t, perr)
	require.Len(t, lines, 1)
	assert.Equal(t, "1", lines[0].TypeCode)
	assert.Equal(t, "35240111222333000144570010000010011000010017", lines[0].RefKey)
	assert.True(t, lines[0].IsComplement())
}

func TestParseCTeEventIsInformational(t *testing.T) {
	p := newTestParser()

	xml := `<procEventoCTe><retEventoCTe><infEvento><chCTe>123</chCTe></infEvento></retEventoCTe></procEventoCTe>`
	lines, perr := p.ParseCTe([]byte(xml), "event.xml")
	assert.Nil(t, lines)
	require.NotNil(t, perr)
	assert.Equal(t, SeverityInfo, perr.Severity)
	assert.Equal(t, "Evento de CT-e", perr.Message)
}

func TestParseCTeInvalid(t *testing.T) {
	p := newTestParser()

	lines, perr := p.ParseCTe([]byte("<xml><not-a-cte/></xml>"), "bad.xml")
	assert.Nil(t, lines)
	require.NotNil(t, perr)
	assert.Equal(t, SeverityError, perr.Severity)
	assert.Equal(t, "XML Inválido", perr.Message)
}

const ctePrefixedXML = `<?xml version="1.0" encoding="UTF-8"?>
<cte:cteProc xmlns:cte="http://www.portalfiscal.inf.br/cte" versao="3.00">
 <cte:CTe>
  <cte:infCte Id="CTe35240111222333000144570010000010011000010017" versao="3.00">
   <cte:ide>
    <cte:nCT>1001</cte:nCT>
    <cte:tpCTe>0</cte:tpCTe>
    <cte:dhEmi>2024-01-10T08:30:00-03:00</cte:dhEmi>
    <cte:xMunIni>Cuiaba</cte:xMunIni>
    <cte:UFIni>MT</cte:UFIni>
    <cte:xMunFim>Santos</cte:xMunFim>
    <cte:UFFim>SP</cte:UFFim>
   </cte:ide>
   <cte:emit>
    <cte:CNPJ>11222333000144</cte:CNPJ>
    <cte:xNome>Transportes Alfa Ltda</cte:xNome>
   </cte:emit>
   <cte:vPrest>
    <cte:vTPrest>1234,56</cte:vTPrest>
    <cte:Comp><cte:xNome>PEDAGIO</cte:xNome><cte:vComp>150.00</cte:vComp></cte:Comp>
   </cte:vPrest>
   <cte:infCTeNorm>
    <cte:infCarga>
     <cte:infQ><cte:qCarga>12000.0000</cte:qCarga></cte:infQ>
    </cte:infCarga>
    <cte:infDoc>
     <cte:infNFe><cte:chave>35240312345678000199550010000123451000012345</cte:chave></cte:infNFe>
    </cte:infDoc>
   </cte:infCTeNorm>
  </cte:infCte>
 </cte:CTe>
</cte:cteProc>`

// Some emitter software qualifies every element with an explicit prefix
// instead of a default namespace. Lookup goes by local tag name, so the
// prefixed form must extract identically.
func TestParseCTePrefixedNamespace(t *testing.T) {
	p := newTestParser()

	lines, perr := p.ParseCTe([]byte(ctePrefixedXML), "prefixed.xml")
	require.Nil(t, perr)
	require.Len(t, lines, 1)

	line := lines[0]
	assert.Equal(t, "35240111222333000144570010000010011000010017", line.OwnKey)
	assert.Equal(t, "1001", line.Number)
	assert.Equal(t, "10/01/2024", line.IssueDate)
	assert.Equal(t, "Transportes Alfa Ltda", line.IssuerName)
	assert.Equal(t, "11222333000144", line.IssuerCNPJ)
	assert.Equal(t, "Cuiaba-MT", line.OriginCity)
	assert.Equal(t, "Santos-SP", line.DestinationCity)
	assert.InDelta(t, 1234.56, line.FreightValue, 1e-9)
	assert.InDelta(t, 12000.0, line.CargoWeightKg, 1e-9)
	assert.InDelta(t, 150.0, line.TollValue, 1e-9)
	assert.Equal(t, "35240312345678000199550010000123451000012345", line.InvoiceKey)
	assert.Equal(t, "12345", line.InvoiceNumber)
}

func TestParseCTeRecoversMissingEndTags(t *testing.T) {
	p := newTestParser()

	// ide and vPrest are never closed; the permissive reader invents
	// the end tags when the enclosing CTe closes
	xml := `<CTe><infCte Id="CTeREC1"><ide><nCT>88</nCT><tpCTe>0</tpCTe><vPrest><vTPrest>321,00</vTPrest></CTe>`
	lines, perr := p.ParseCTe([]byte(xml), "broken_but_usable.xml")
	require.Nil(t, perr)
	require.Len(t, lines, 1)
	assert.Equal(t, "REC1", lines[0].OwnKey)
	assert.Equal(t, "88", lines[0].Number)
	assert.InDelta(t, 321.0, lines[0].FreightValue, 1e-9)
}

func TestParseCTeLegacyEncodings(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name    string
		charset string
	}{
		{"iso-8859-1", "ISO-8859-1"},
		{"windows-1252", "windows-1252"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// 0xE3 is "ã" in both charsets, invalid as UTF-8
			raw := []byte(`<?xml version="1.0" encoding="` + tt.charset + `"?>` +
				"<CTe><infCte Id=\"CTeL1\"><ide><nCT>9</nCT><tpCTe>0</tpCTe>" +
				"<xMunIni>S\xE3o Paulo</xMunIni><UFIni>SP</UFIni></ide>" +
				"<vPrest><vTPrest>10</vTPrest></vPrest></infCte></CTe>")

			lines, perr := p.ParseCTe(raw, "latin.xml")
			require.Nil(t, perr)
			require.Len(t, lines, 1)
			assert.Equal(t, "São Paulo-SP", lines[0].OriginCity)
		})
	}
}

const nfeXML = `<?xml version="1.0" encoding="UTF-8"?>
<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe" versao="4.00">
 <NFe>
  <infNFe Id="NFe35240312345678000199550010000123451000012345" versao="4.00">
   <ide><nNF>12345</nNF><dhEmi>2024-03-15T10:00:00-03:00</dhEmi></ide>
   <emit>
    <CNPJ>12345678000199</CNPJ>
    <xNome>Filial Cuiaba</xNome>
    <enderEmit><xMun>Cuiaba</xMun><UF>MT</UF><CEP>78000000</CEP></enderEmit>
   </emit>
   <dest>
    <CNPJ>99887766000155</CNPJ>
    <xNome>Cliente Santos SA</xNome>
    <enderDest><xMun>Santos</xMun><UF>SP</UF><CEP>11000000</CEP></enderDest>
   </dest>
   <det nItem="1">
    <prod><xProd>Soja em Graos</xProd><NCM>12019000</NCM><CFOP>6102</CFOP><uCom>KG</uCom><qCom>12000.000</qCom><vProd>30000.00</vProd></prod>
   </det>
   <det nItem="2">
    <prod><xProd>Farelo de Soja</xProd><NCM>23040010</NCM><CFOP>6102</CFOP><uCom>KG</uCom><qCom>3000.000</qCom><vProd>9000.00</vProd></prod>
   </det>
   <total><ICMSTot><vNF>39000.00</vNF></ICMSTot></total>
   <transp>
    <modFrete>0</modFrete>
    <transporta><xNome>Transportes Alfa Ltda</xNome></transporta>
    <vol><pesoB>12000.000</pesoB></vol>
    <vol><pesoB>3000.000</pesoB></vol>
   </transp>
  </infNFe>
 </NFe>
</nfeProc>`

func TestParseNFe(t *testing.T) {
	p := newTestParser()

	header, items, perr := p.ParseNFe(context.Background(), []byte(nfeXML), "nfe_12345.xml")
	require.Nil(t, perr)
	require.NotNil(t, header)

	assert.Equal(t, "35240312345678000199550010000123451000012345", header.InvoiceKey)
	assert.Equal(t, "12345", header.Number)
	assert.Equal(t, "15/03/2024", header.IssueDate)
	assert.Equal(t, "Filial Cuiaba", header.IssuerName)
	assert.Equal(t, "Cliente Santos SA", header.RecipientName)
	assert.Equal(t, "SP", header.DestinationUF)
	assert.Equal(t, "Cuiaba-MT", header.OriginCity)
	assert.Equal(t, "Santos-SP", header.DestinationCity)
	assert.Equal(t, "78000000", header.OriginCEP)
	assert.Equal(t, "11000000", header.DestinationCEP)
	assert.InDelta(t, 39000.0, header.TotalValue, 1e-9)
	// volumes are summed
	assert.InDelta(t, 15000.0, header.GrossWeightKg, 1e-9)
	assert.Equal(t, "Transportes Alfa Ltda", header.CarrierName)
	assert.Equal(t, "0", header.FreightMode)
	assert.Equal(t, "6102", header.MainCFOP)
	assert.Equal(t, 2, header.ItemCount)
	assert.Equal(t, 0.0, header.DistanceKm)

	// issuer is an own branch, recipient is not
	assert.Equal(t, classify.FlowSale, header.OperationType)

	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ItemNumber)
	assert.Equal(t, "Soja em Graos", items[0].Product)
	assert.Equal(t, "12019000", items[0].NCM)
	assert.Equal(t, "6102", items[0].CFOP)
	assert.Equal(t, "KG", items[0].Unit)
	assert.InDelta(t, 12000.0, items[0].Quantity, 1e-9)
	assert.Equal(t, "12.000,000", items[0].QuantityDisplay)
	assert.InDelta(t, 30000.0, items[0].TotalValue, 1e-9)
	assert.Equal(t, "35240312345678000199550010000123451000012345", items[1].InvoiceKey)
}

func TestParseNFeWithoutRecipient(t *testing.T) {
	p := newTestParser()

	xml := `<NFe><infNFe Id="NFeX"><ide><nNF>9</nNF></ide><emit><CNPJ>12345678000199</CNPJ><xNome>Filial</xNome></emit></infNFe></NFe>`
	header, _, perr := p.ParseNFe(context.Background(), []byte(xml), "f.xml")
	require.Nil(t, perr)
	assert.Equal(t, "Consumidor", header.RecipientName)
	assert.Equal(t, "ND", header.DestinationCity)
	assert.Equal(t, 0.0, header.GrossWeightKg)
}

func TestParseNFeMissingRequiredStructure(t *testing.T) {
	p := newTestParser()

	_, _, perr := p.ParseNFe(context.Background(), []byte(`<foo/>`), "f.xml")
	require.NotNil(t, perr)
	assert.Equal(t, "XML NFe Inválido", perr.Message)

	// infNFe present but no ide/emit
	_, _, perr = p.ParseNFe(context.Background(), []byte(`<NFe><infNFe Id="NFe1"><det/></infNFe></NFe>`), "f.xml")
	require.NotNil(t, perr)
	assert.Equal(t, "Dados Incompletos", perr.Message)
	assert.Equal(t, SeverityError, perr.Severity)
}
