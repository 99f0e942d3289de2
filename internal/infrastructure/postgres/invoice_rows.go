package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cfdi-api/internal/domain/entity"
)

// Formas JSONB de emisor, receptor y conceptos. Los importes viajan como texto decimal.

type partyRow struct {
	RFC        string `json:"rfc"`
	Name       string `json:"name"`
	TaxRegime  string `json:"tax_regime"`
	CFDIUse    string `json:"cfdi_use,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

type taxRow struct {
	Kind       string          `json:"kind"`
	Tax        string          `json:"tax"`
	FactorType string          `json:"factor_type"`
	Rate       decimal.Decimal `json:"rate"`
	Base       decimal.Decimal `json:"base"`
	Amount     decimal.Decimal `json:"amount"`
}

type conceptRow struct {
	ProductCode string          `json:"product_code"`
	UnitCode    string          `json:"unit_code"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitValue   decimal.Decimal `json:"unit_value"`
	Amount      decimal.Decimal `json:"amount"`
	Discount    decimal.Decimal `json:"discount"`
	Taxes       []taxRow        `json:"taxes,omitempty"`
}

func marshalParty(p entity.Party) ([]byte, error) {
	return json.Marshal(partyRow(p))
}

func unmarshalParty(data []byte) (entity.Party, error) {
	var row partyRow
	if err := json.Unmarshal(data, &row); err != nil {
		return entity.Party{}, fmt.Errorf("decode party: %w", err)
	}
	return entity.Party(row), nil
}

func marshalConcepts(concepts []entity.Concept) ([]byte, error) {
	rows := make([]conceptRow, 0, len(concepts))
	for _, c := range concepts {
		row := conceptRow{
			ProductCode: c.ProductCode,
			UnitCode:    c.UnitCode,
			Description: c.Description,
			Quantity:    c.Quantity,
			UnitValue:   c.UnitValue,
			Amount:      c.Amount,
			Discount:    c.Discount,
		}
		for _, t := range c.Taxes {
			row.Taxes = append(row.Taxes, taxRow(t))
		}
		rows = append(rows, row)
	}
	return json.Marshal(rows)
}

func unmarshalConcepts(data []byte) ([]entity.Concept, error) {
	var rows []conceptRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode concepts: %w", err)
	}
	out := make([]entity.Concept, 0, len(rows))
	for _, r := range rows {
		c := entity.Concept{
			ProductCode: r.ProductCode,
			UnitCode:    r.UnitCode,
			Description: r.Description,
			Quantity:    r.Quantity,
			UnitValue:   r.UnitValue,
			Amount:      r.Amount,
			Discount:    r.Discount,
		}
		for _, t := range r.Taxes {
			c.Taxes = append(c.Taxes, entity.ConceptTax(t))
		}
		out = append(out, c)
	}
	return out, nil
}
