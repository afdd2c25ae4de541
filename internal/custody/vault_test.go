package custody

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stakewake/internal/ir"
)

func testVault() *Vault {
	return NewVault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func instruction(kind ir.TransferKind, party, amount string) Instruction {
	return Instruction{
		Ref:       ir.TransferRef(ir.ModePersonal, 0, ir.Identity(party), kind),
		ReceiptID: "r-" + party,
		Kind:      kind,
		Mode:      ir.ModePersonal,
		Party:     ir.Identity(party),
		Amount:    ir.MustAmount(amount),
	}
}

func TestVault_ReturnAndBurn(t *testing.T) {
	v := testVault()
	ctx := context.Background()

	require.NoError(t, v.Execute(ctx, instruction(ir.TransferReturn, "0xa", "0.1")))
	require.NoError(t, v.Execute(ctx, instruction(ir.TransferBurn, "0xb", "0.25")))

	assert.Equal(t, "0.1", v.Returned("0xa").String())
	assert.True(t, v.Returned("0xb").IsZero())
	assert.Equal(t, "0.25", v.Burned().String())
	assert.Equal(t, []ir.Identity{"0xa"}, v.Parties())
	assert.Len(t, v.Instructions(), 2)
}

func TestVault_IdempotentOnRef(t *testing.T) {
	v := testVault()
	ctx := context.Background()
	in := instruction(ir.TransferReturn, "0xa", "0.1")

	require.NoError(t, v.Execute(ctx, in))
	in.ReceiptID = "r-retry"
	require.NoError(t, v.Execute(ctx, in))

	assert.Equal(t, "0.1", v.Returned("0xa").String())
	require.Len(t, v.Instructions(), 1)
	assert.Equal(t, "r-0xa", v.Instructions()[0].ReceiptID)
}

func TestVault_RejectsInvalid(t *testing.T) {
	v := testVault()
	ctx := context.Background()

	tests := []struct {
		name string
		in   Instruction
	}{
		{"no ref", Instruction{Kind: ir.TransferBurn, Party: "0xa", Amount: ir.MustAmount("1")}},
		{"no party", Instruction{Ref: "x", Kind: ir.TransferBurn, Amount: ir.MustAmount("1")}},
		{"zero amount", Instruction{Ref: "x", Kind: ir.TransferBurn, Party: "0xa", Amount: ir.MustAmount("0")}},
		{"unknown kind", Instruction{Ref: "x", Kind: "MINT", Party: "0xa", Amount: ir.MustAmount("1")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, v.Execute(ctx, tt.in), ErrInvalidInstruction)
		})
	}
	assert.Empty(t, v.Instructions())
}

func TestDerivedReceipts_StablePerRef(t *testing.T) {
	g := DerivedReceipts{}
	a := g.Generate("personal/0/0xa/RETURN")
	assert.Len(t, a, 36)
	assert.Equal(t, a, DerivedReceipts{}.Generate("personal/0/0xa/RETURN"))
	assert.NotEqual(t, a, g.Generate("personal/0/0xa/BURN"))
}
