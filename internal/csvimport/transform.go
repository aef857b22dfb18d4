package csvimport

import (
	"fmt"
	"hash/fnv"
	"time"

	"finance-sync-go/internal/models"
)

// ToTransactions converts parsed rows to canonical transactions for one
// account. The signed amount becomes a non-negative stored amount with the
// sign carried by the type (>= 0 is income, < 0 is expense).
func ToTransactions(rows []ParsedRow, userId, accountId string) []models.Transaction {
	transactions := make([]models.Transaction, 0, len(rows))
	for _, row := range rows {
		txType := models.TypeIncome
		if row.Amount.IsNegative() {
			txType = models.TypeExpense
		}

		tx := models.Transaction{
			UserId:          userId,
			AccountId:       accountId,
			Amount:          row.Amount.Abs(),
			Type:            txType,
			Description:     row.Description,
			Merchant:        row.Merchant,
			TransactionDate: row.Date,
		}
		tx.ExternalId = importReference(tx)
		transactions = append(transactions, tx)
	}
	return transactions
}

// Deduplicate drops transactions whose (accountId, date, amount, description)
// matches an earlier one, preserving input order. It is idempotent: running
// it on its own output yields the same set.
func Deduplicate(transactions []models.Transaction) []models.Transaction {
	seen := make(map[string]bool, len(transactions))
	unique := make([]models.Transaction, 0, len(transactions))

	for _, tx := range transactions {
		key := dedupeKey(tx)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, tx)
	}

	return unique
}

func dedupeKey(tx models.Transaction) string {
	return fmt.Sprintf("%s_%s_%s_%s",
		tx.AccountId,
		tx.TransactionDate.UTC().Format(time.RFC3339),
		tx.Amount.String(),
		tx.Description)
}

// importReference derives a deterministic external id from the dedupe key so
// re-importing the same file upserts instead of inserting duplicates. The
// stored amount is signed by type, keeping income and expense rows distinct.
func importReference(tx models.Transaction) string {
	amount := tx.Amount
	if tx.Type == models.TypeExpense {
		amount = amount.Neg()
	}

	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%s", tx.AccountId, tx.TransactionDate.UTC().Format("2006-01-02"), amount.String(), tx.Description)

	return fmt.Sprintf("csv_%s_%016x", tx.TransactionDate.UTC().Format("20060102"), h.Sum64())
}
