package custody

import "github.com/google/uuid"

// ReceiptGenerator issues transfer receipt ids. The same ref must always get
// the same id, so a retried settlement journals the receipt the custodian
// already holds for that leg.
// Implemented by DerivedReceipts (production) and testutil.FixedGenerator.
type ReceiptGenerator interface {
	Generate(ref string) string
}

// receiptNamespace scopes name-based receipt UUIDs.
var receiptNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("stakewake:receipt"))

// DerivedReceipts issues name-based (version 5) UUIDs computed from the
// transfer ref. Ids are stable across processes and restarts.
//
// Thread-safety: stateless and safe for concurrent use.
type DerivedReceipts struct{}

// Generate returns the hyphenated UUID for ref.
func (DerivedReceipts) Generate(ref string) string {
	return uuid.NewSHA1(receiptNamespace, []byte(ref)).String()
}
