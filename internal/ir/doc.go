// Package ir provides the value types shared by every stakewake package.
//
// This package contains type definitions and pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Money is decimal.Decimal, never float64
//   - Identities are normalized once at the boundary (NormalizeIdentity)
//   - Calendar days are integer indexes (DayIndex), never date strings
//   - All JSON tags use snake_case
package ir
