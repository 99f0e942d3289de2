package cfdi_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/cfdi-api/internal/domain"
	"github.com/jhoicas/cfdi-api/internal/domain/cfdi"
	"github.com/jhoicas/cfdi-api/internal/domain/entity"
)

func TestCanTransition_Tabla(t *testing.T) {
	cases := []struct {
		from string
		op   cfdi.Operation
		to   string
		ok   bool
	}{
		{entity.InvoiceStatusDraft, cfdi.OpStamp, entity.InvoiceStatusStamped, true},
		{entity.InvoiceStatusStamped, cfdi.OpStamp, "", false},
		{entity.InvoiceStatusCancelled, cfdi.OpStamp, "", false},
		{entity.InvoiceStatusError, cfdi.OpStamp, "", false},
		{entity.InvoiceStatusStamped, cfdi.OpCancel, entity.InvoiceStatusCancelled, true},
		{entity.InvoiceStatusDraft, cfdi.OpCancel, "", false},
		{entity.InvoiceStatusCancelled, cfdi.OpCancel, "", false},
		{entity.InvoiceStatusError, cfdi.OpCancel, "", false},
		{entity.InvoiceStatusError, cfdi.OpRetry, entity.InvoiceStatusDraft, true},
		{entity.InvoiceStatusDraft, cfdi.OpRetry, "", false},
	}
	for _, c := range cases {
		to, err := cfdi.CanTransition(c.from, c.op)
		if c.ok {
			require.NoError(t, err, "%s/%s", c.from, c.op)
			assert.Equal(t, c.to, to)
		} else {
			assert.True(t, errors.Is(err, domain.ErrStateConflict), "%s/%s debe ser conflicto", c.from, c.op)
		}
	}
}

func TestCanTransition_MensajeYaTimbrado(t *testing.T) {
	_, err := cfdi.CanTransition(entity.InvoiceStatusStamped, cfdi.OpStamp)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already stamped")
}

func TestMarkStamped_AsignaFolioUnaVez(t *testing.T) {
	inv := &entity.Invoice{Status: entity.InvoiceStatusDraft}

	require.NoError(t, cfdi.MarkStamped(inv, "AAA"))
	assert.Equal(t, entity.InvoiceStatusStamped, inv.Status)
	assert.Equal(t, "AAA", inv.FiscalID)

	err := cfdi.MarkStamped(inv, "BBB")
	assert.ErrorIs(t, err, domain.ErrStateConflict)
	assert.Equal(t, "AAA", inv.FiscalID, "el folio fiscal nunca se reasigna")
}

func TestMarkFailed(t *testing.T) {
	inv := &entity.Invoice{Status: entity.InvoiceStatusDraft}
	require.NoError(t, cfdi.MarkFailed(inv, "timeout"))
	assert.Equal(t, entity.InvoiceStatusError, inv.Status)
	assert.Equal(t, "timeout", inv.FailureReason)
	assert.Empty(t, inv.FiscalID)

	assert.ErrorIs(t, cfdi.MarkFailed(inv, "otra"), domain.ErrStateConflict)
}

func TestSummarize_SoloTimbradosSuman(t *testing.T) {
	invs := []*entity.Invoice{
		{Status: entity.InvoiceStatusStamped, Type: "I", PaymentForm: "01", Subtotal: d("100"), TotalTransferred: d("16"), Total: d("116")},
		{Status: entity.InvoiceStatusDraft, Type: "I", PaymentForm: "03", Subtotal: d("50"), Total: d("58")},
		{Status: entity.InvoiceStatusCancelled, Type: "E", PaymentForm: "01", Subtotal: d("10"), Total: d("11.6")},
		{Status: entity.InvoiceStatusError, Type: "I", PaymentForm: "01", Subtotal: d("5"), Total: d("5")},
	}

	st := cfdi.Summarize(invs)

	assert.Equal(t, 4, st.Count)
	assert.Equal(t, 1, st.StampedCount)
	assert.Equal(t, 1, st.ByStatus[entity.InvoiceStatusDraft])
	assert.Equal(t, 3, st.ByType["I"])
	assert.Equal(t, 3, st.ByPaymentForm["01"])
	assert.True(t, st.Subtotal.Equal(d("100")))
	assert.True(t, st.Total.Equal(d("116")))
	assert.True(t, st.TotalTransferred.Equal(d("16")))
}

func TestMatches(t *testing.T) {
	now := time.Now()
	from := now.Add(-time.Hour)
	to := now.Add(time.Hour)
	inv := &entity.Invoice{TenantID: "t1", LocationID: "l1", Status: entity.InvoiceStatusDraft, IssuedAt: now}

	assert.True(t, cfdi.Matches(inv, entity.InvoiceFilter{TenantID: "t1", From: &from, To: &to}))
	assert.False(t, cfdi.Matches(inv, entity.InvoiceFilter{TenantID: "t2"}))
	assert.False(t, cfdi.Matches(inv, entity.InvoiceFilter{LocationID: "l2"}))
	assert.False(t, cfdi.Matches(inv, entity.InvoiceFilter{Status: entity.InvoiceStatusStamped}))
	assert.False(t, cfdi.Matches(inv, entity.InvoiceFilter{From: &to}))
}
