// Package reconcile partitions a freshly parsed batch against what the
// store already holds, so a run can report (or dry-run preview) how many
// rows are genuinely new before anything is written.
package reconcile

import "github.com/yurifrl/txnclass/pkg/models"

// Status is the reconciliation result for one parsed transaction.
//
//   - Synced: already present in the store.
//   - ToAdd:  missing, will be inserted.
type Status int

const (
	Synced Status = iota
	ToAdd
)

// Entry links a parsed transaction with its reconciliation status.
type Entry struct {
	Tx     *models.Transaction
	Status Status
}

// Report holds every parsed transaction plus enough metadata for callers to
// log or display the run without redoing the comparison.
type Report struct {
	Items []Entry
	toAdd []*models.Transaction
}

// Build matches the batch against the set of stored ids. Identity is the
// content-derived fingerprint, so matching is a plain set membership test.
func Build(batch []*models.Transaction, existing map[string]bool) *Report {
	items := make([]Entry, 0, len(batch))
	toAdd := make([]*models.Transaction, 0, len(batch))

	for _, tx := range batch {
		status := ToAdd
		if existing[tx.ID] {
			status = Synced
		}
		items = append(items, Entry{Tx: tx, Status: status})
		if status == ToAdd {
			toAdd = append(toAdd, tx)
		}
	}

	return &Report{Items: items, toAdd: toAdd}
}

// InSyncCount returns how many batch rows the store already has.
func (r *Report) InSyncCount() int {
	return len(r.Items) - len(r.toAdd)
}

// MissingCount returns how many batch rows still need inserting.
func (r *Report) MissingCount() int {
	return len(r.toAdd)
}

// ToAdd returns the subset of the batch that is not in the store yet.
func (r *Report) ToAdd() []*models.Transaction {
	return r.toAdd
}
