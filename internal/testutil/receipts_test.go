package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/stakewake/internal/custody"
	"github.com/roach88/stakewake/internal/ir"
)

func TestFixedGenerator_Sequence(t *testing.T) {
	gen := NewFixedGenerator("r")

	assert.Equal(t, "r-1", gen.Generate("a"))
	assert.Equal(t, "r-2", gen.Generate("b"))
	assert.Equal(t, 2, gen.Issued())
}

func TestFixedGenerator_StablePerRef(t *testing.T) {
	gen := NewFixedGenerator("r")

	first := gen.Generate("a")
	gen.Generate("b")
	assert.Equal(t, first, gen.Generate("a"))
	assert.Equal(t, 2, gen.Issued())
}

func TestFixedGenerator_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "receipt-1", NewFixedGenerator("").Generate("a"))
}

func TestFixedGenerator_ThreadSafe(t *testing.T) {
	gen := NewFixedGenerator("r")
	seen := sync.Map{}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, dup := seen.LoadOrStore(gen.Generate(fmt.Sprintf("%d/%d", i, j)), true)
				assert.False(t, dup)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1000, gen.Issued())
}

func TestFailingCustodian(t *testing.T) {
	ctx := context.Background()
	in := custody.Instruction{Ref: "ref", Kind: ir.TransferBurn, Party: "0xa", Amount: ir.MustAmount("1")}

	f := &FailingCustodian{}
	assert.ErrorIs(t, f.Execute(ctx, in), ErrCustodyDown)

	vault := custody.NewVault(nil)
	f = &FailingCustodian{
		Next:   vault,
		FailOn: func(i custody.Instruction) bool { return i.Party == "0xb" },
	}
	assert.NoError(t, f.Execute(ctx, in))
	in.Party = "0xb"
	in.Ref = "ref-b"
	assert.Error(t, f.Execute(ctx, in))
	assert.Equal(t, "1", vault.Burned().String())

	f.Heal()
	assert.NoError(t, f.Execute(ctx, in))
	assert.Equal(t, "2", vault.Burned().String())
	assert.Len(t, f.Calls(), 3)
}

func TestFailingCustodian_HealWhileExecuting(t *testing.T) {
	ctx := context.Background()
	vault := custody.NewVault(nil)
	f := &FailingCustodian{Next: vault}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			in := custody.Instruction{
				Ref:    fmt.Sprintf("ref-%d", i),
				Kind:   ir.TransferBurn,
				Party:  "0xa",
				Amount: ir.MustAmount("1"),
			}
			_ = f.Execute(ctx, in)
		}(i)
	}
	f.Heal()
	wg.Wait()

	assert.Len(t, f.Calls(), 8)
	assert.NoError(t, f.Execute(ctx, custody.Instruction{
		Ref: "after", Kind: ir.TransferBurn, Party: "0xa", Amount: ir.MustAmount("1"),
	}))
}
