package engine

import (
	"context"

	"github.com/roach88/stakewake/internal/ir"
	"github.com/roach88/stakewake/internal/store"
)

// SetOracleAddress rotates the oracle identity. Only the admin may call it.
// The previous oracle loses its rights as soon as the call commits.
func (e *Engine) SetOracleAddress(ctx context.Context, caller, identity ir.Identity) error {
	next := ir.NormalizeIdentity(string(identity))
	var previous ir.Identity
	err := e.run(ctx, "set_oracle", func(ctx context.Context, o *op) error {
		who, err := requireCaller(caller)
		if err != nil {
			return err
		}
		if who != e.admin {
			return newError(ErrCodeUnauthorized, "Only admin can set oracle")
		}
		if next.IsZero() {
			return newError(ErrCodeInvalidIdentity, "Oracle identity required")
		}

		previous, err = e.currentOracle(ctx, o.tx)
		if err != nil {
			return err
		}
		if err := o.tx.PutSetting(ctx, store.SettingOracle, string(next)); err != nil {
			return err
		}
		return o.emit(ctx, ir.Event{
			Kind:  ir.EventOracleChanged,
			Actor: who,
			Data: map[string]any{
				"previous": string(previous),
				"oracle":   string(next),
			},
		})
	})
	if err != nil {
		return err
	}

	e.logger.Info("oracle changed", "previous", previous, "oracle", next)
	return nil
}

// Oracle returns the identity currently trusted by the address gate.
func (e *Engine) Oracle(ctx context.Context) (ir.Identity, error) {
	var id ir.Identity
	err := e.view(ctx, func(tx *store.Tx) error {
		var err error
		id, err = e.currentOracle(ctx, tx)
		return err
	})
	return id, err
}

// currentOracle reads the oracle setting, falling back to the configured
// default.
func (e *Engine) currentOracle(ctx context.Context, tx *store.Tx) (ir.Identity, error) {
	v, ok, err := tx.Setting(ctx, store.SettingOracle)
	if err != nil {
		return "", err
	}
	if !ok {
		return e.defaultOracle, nil
	}
	return ir.Identity(v), nil
}
