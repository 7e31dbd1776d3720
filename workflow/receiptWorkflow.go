package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/travel_backend/models"
	"github.com/mmdatafocus/travel_backend/utils"
	"gorm.io/gorm"
)

// CreateReceipt records money received from a customer. The linked invoice,
// its booking, the money account and the journal move in the same transaction.
// A non-empty idempotencyKey returns the receipt a previous call created.
func (l *Ledger) CreateReceipt(ctx context.Context, scope models.AccessScope, input *models.NewReceipt, idempotencyKey string) (*models.Receipt, error) {
	method, err := input.Validate()
	if err != nil {
		return nil, err
	}
	if err := scope.CheckCustomer(input.CustomerId, "customer", input.CustomerId); err != nil {
		return nil, err
	}
	rates, err := l.rates(ctx)
	if err != nil {
		return nil, err
	}

	var result *models.Receipt
	keys := lockKeys(0, []*int{input.InvoiceId}, []*int{input.MoneyAccountId})
	err = l.run(ctx, "CreateReceipt", keys, func(tx *gorm.DB) error {
		if id, err := lookupIdempotency(tx, operationCreateReceipt, idempotencyKey); err != nil || id > 0 {
			if err == nil {
				result, err = utils.FetchModel[models.Receipt](ctx, tx, "receipt", id)
			}
			return err
		}
		if err := utils.ValidateResourceId[models.Customer](ctx, tx, "customer", input.CustomerId); err != nil {
			return err
		}
		invoices, err := lockInvoices(tx, input.InvoiceId)
		if err != nil {
			return err
		}
		if err := checkReceiptInvoice(input, invoices); err != nil {
			return err
		}

		seqNo, err := utils.GetSequence[models.Receipt](ctx, tx, l.cache)
		if err != nil {
			return err
		}
		receipt := models.Receipt{
			ReceiptNumber: utils.FormatSequence(models.ReceiptPrefix, seqNo),
			SequenceNo:    seqNo,
			Status:        models.ReceiptStatusActive,
			CreatedBy:     scope.UserId,
		}
		fillReceipt(&receipt, input, method, rates, l.now())
		if err := tx.Create(&receipt).Error; err != nil {
			return utils.NumberTakenError(err, receipt.ReceiptNumber)
		}
		if err := l.applyReceiptEffects(tx, scope.UserId, rates, &receipt); err != nil {
			return err
		}
		for _, invoice := range invoices {
			if err := l.recomputeInvoice(tx, scope.UserId, invoice); err != nil {
				return err
			}
		}
		desc := fmt.Sprintf("receipt %s of %s %s", receipt.ReceiptNumber, receipt.Amount, receipt.Currency)
		if err := models.RecordHistory(tx, scope.UserId, models.HistoryActionCreate, models.ReferenceTypeReceipt, receipt.ID, nil, receipt, desc); err != nil {
			return err
		}
		if err := rememberIdempotency(tx, operationCreateReceipt, idempotencyKey, scope.UserId, receipt.ID); err != nil {
			return err
		}
		result = &receipt
		return nil
	})
	return result, err
}

// UpdateReceipt replaces a receipt's inputs. Its previous effects are reversed
// and the new ones applied, then every invoice it touched is re-derived.
func (l *Ledger) UpdateReceipt(ctx context.Context, scope models.AccessScope, id int, input *models.NewReceipt) (*models.Receipt, error) {
	method, err := input.Validate()
	if err != nil {
		return nil, err
	}
	if err := scope.CheckCustomer(input.CustomerId, "customer", input.CustomerId); err != nil {
		return nil, err
	}
	current, err := models.GetReceipt(ctx, l.db, scope, id)
	if err != nil {
		return nil, err
	}
	rates, err := l.rates(ctx)
	if err != nil {
		return nil, err
	}

	var result *models.Receipt
	keys := lockKeys(0, []*int{current.InvoiceId, input.InvoiceId}, []*int{current.MoneyAccountId, input.MoneyAccountId})
	err = l.run(ctx, "UpdateReceipt", keys, func(tx *gorm.DB) error {
		if err := utils.ValidateResourceId[models.Customer](ctx, tx, "customer", input.CustomerId); err != nil {
			return err
		}
		invoices, err := lockInvoices(tx, current.InvoiceId, input.InvoiceId)
		if err != nil {
			return err
		}
		receipt, err := utils.FetchModelForUpdate[models.Receipt](tx, "receipt", id)
		if err != nil {
			return err
		}
		if err := checkReceiptLinks(receipt, current); err != nil {
			return err
		}
		if receipt.Status == models.ReceiptStatusCancelled {
			return utils.NewConflictError("receipt %s is cancelled", receipt.ReceiptNumber)
		}
		if err := checkFrozenInvoice(receipt, invoices); err != nil {
			return err
		}
		if !sameId(receipt.InvoiceId, input.InvoiceId) {
			if err := checkReceiptInvoice(input, invoices); err != nil {
				return err
			}
		} else if input.InvoiceId != nil && invoices[*input.InvoiceId].CustomerId != input.CustomerId {
			return utils.NewValidationError("invoice_id", "invoice belongs to another customer")
		}
		before := *receipt

		if err := l.reverseReceiptEffects(tx, scope.UserId, receipt, ReversalReasonReceiptUpdate); err != nil {
			return err
		}
		fillReceipt(receipt, input, method, rates, receipt.ReceiptDate)
		if err := l.applyReceiptEffects(tx, scope.UserId, rates, receipt); err != nil {
			return err
		}
		for _, invoice := range invoices {
			if err := l.recomputeInvoice(tx, scope.UserId, invoice); err != nil {
				return err
			}
		}
		desc := fmt.Sprintf("receipt %s updated", receipt.ReceiptNumber)
		if err := models.RecordHistory(tx, scope.UserId, models.HistoryActionUpdate, models.ReferenceTypeReceipt, receipt.ID, before, receipt, desc); err != nil {
			return err
		}
		result = receipt
		return nil
	})
	return result, err
}

// VoidReceipt cancels a receipt but keeps the row for audit.
func (l *Ledger) VoidReceipt(ctx context.Context, scope models.AccessScope, id int) (*models.Receipt, error) {
	current, err := models.GetReceipt(ctx, l.db, scope, id)
	if err != nil {
		return nil, err
	}
	var result *models.Receipt
	keys := lockKeys(0, []*int{current.InvoiceId}, []*int{current.MoneyAccountId})
	err = l.run(ctx, "VoidReceipt", keys, func(tx *gorm.DB) error {
		invoices, err := lockInvoices(tx, current.InvoiceId)
		if err != nil {
			return err
		}
		receipt, err := utils.FetchModelForUpdate[models.Receipt](tx, "receipt", id)
		if err != nil {
			return err
		}
		if err := checkReceiptLinks(receipt, current); err != nil {
			return err
		}
		if receipt.Status == models.ReceiptStatusCancelled {
			return utils.NewConflictError("receipt %s is already cancelled", receipt.ReceiptNumber)
		}
		if err := checkFrozenInvoice(receipt, invoices); err != nil {
			return err
		}
		if err := l.reverseReceiptEffects(tx, scope.UserId, receipt, ReversalReasonReceiptVoid); err != nil {
			return err
		}
		if err := tx.Model(receipt).Update("status", models.ReceiptStatusCancelled).Error; err != nil {
			return err
		}
		receipt.Status = models.ReceiptStatusCancelled
		for _, invoice := range invoices {
			if err := l.recomputeInvoice(tx, scope.UserId, invoice); err != nil {
				return err
			}
		}
		desc := fmt.Sprintf("receipt %s voided", receipt.ReceiptNumber)
		if err := models.RecordHistory(tx, scope.UserId, models.HistoryActionStatus, models.ReferenceTypeReceipt, receipt.ID, models.ReceiptStatusActive, models.ReceiptStatusCancelled, desc); err != nil {
			return err
		}
		result = receipt
		return nil
	})
	return result, err
}

// DeleteReceipt removes a receipt, reversing its effects if it was active.
func (l *Ledger) DeleteReceipt(ctx context.Context, scope models.AccessScope, id int) (*models.Receipt, error) {
	current, err := models.GetReceipt(ctx, l.db, scope, id)
	if err != nil {
		return nil, err
	}
	var result *models.Receipt
	keys := lockKeys(0, []*int{current.InvoiceId}, []*int{current.MoneyAccountId})
	err = l.run(ctx, "DeleteReceipt", keys, func(tx *gorm.DB) error {
		invoices, err := lockInvoices(tx, current.InvoiceId)
		if err != nil {
			return err
		}
		receipt, err := utils.FetchModelForUpdate[models.Receipt](tx, "receipt", id)
		if err != nil {
			return err
		}
		if err := checkReceiptLinks(receipt, current); err != nil {
			return err
		}
		if err := checkFrozenInvoice(receipt, invoices); err != nil {
			return err
		}
		if receipt.Status == models.ReceiptStatusActive {
			if err := l.reverseReceiptEffects(tx, scope.UserId, receipt, ReversalReasonReceiptDelete); err != nil {
				return err
			}
		}
		if err := tx.Delete(receipt).Error; err != nil {
			return err
		}
		for _, invoice := range invoices {
			if err := l.recomputeInvoice(tx, scope.UserId, invoice); err != nil {
				return err
			}
		}
		desc := fmt.Sprintf("receipt %s deleted", receipt.ReceiptNumber)
		if err := models.RecordHistory(tx, scope.UserId, models.HistoryActionDelete, models.ReferenceTypeReceipt, receipt.ID, receipt, nil, desc); err != nil {
			return err
		}
		result = receipt
		return nil
	})
	return result, err
}

func fillReceipt(receipt *models.Receipt, input *models.NewReceipt, method models.PaymentMethod, rates models.RateTable, date time.Time) {
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = rates.Base
	}
	amount := models.RoundMoney(*input.Amount)
	receipt.CustomerId = input.CustomerId
	receipt.InvoiceId = input.InvoiceId
	receipt.Amount = amount
	receipt.Currency = currency
	receipt.ExchangeRate = rates.Rate(currency)
	receipt.BaseAmount = models.RoundMoney(rates.ToBase(amount, currency))
	receipt.PaymentMethod = method
	receipt.MoneyAccountId = input.MoneyAccountId
	receipt.Reference = input.Reference
	receipt.ReceiptDate = date
	if input.ReceiptDate != nil {
		receipt.ReceiptDate = *input.ReceiptDate
	}
	receipt.MatchStatus = models.MatchStatusUnmatched
	if input.InvoiceId != nil {
		receipt.MatchStatus = models.MatchStatusMatched
	}
}

// checkReceiptInvoice validates the invoice a receipt is being attached to.
func checkReceiptInvoice(input *models.NewReceipt, invoices map[int]*models.Invoice) error {
	if input.InvoiceId == nil {
		return nil
	}
	invoice := invoices[*input.InvoiceId]
	if invoice.CustomerId != input.CustomerId {
		return utils.NewValidationError("invoice_id", "invoice belongs to another customer")
	}
	if !invoice.Status.AcceptsReceipts() {
		return utils.NewConflictError("invoice %s is %s and does not accept receipts", invoice.InvoiceNumber, invoice.Status)
	}
	return nil
}

// checkFrozenInvoice rejects changes to receipts on a cancelled invoice; the
// credit recorded at cancellation depends on them.
func checkFrozenInvoice(receipt *models.Receipt, invoices map[int]*models.Invoice) error {
	if receipt.InvoiceId == nil {
		return nil
	}
	invoice, ok := invoices[*receipt.InvoiceId]
	if ok && invoice.Status == models.InvoiceStatusCancelled {
		return utils.NewConflictError("receipt %s belongs to cancelled invoice %s", receipt.ReceiptNumber, invoice.InvoiceNumber)
	}
	return nil
}

// checkReceiptLinks compares the locked receipt with the copy read before the
// transaction, which chose the invoices and money account to lock.
func checkReceiptLinks(locked *models.Receipt, read *models.Receipt) error {
	if !sameId(locked.InvoiceId, read.InvoiceId) || !sameId(locked.MoneyAccountId, read.MoneyAccountId) {
		return utils.NewConflictError("receipt %s was changed concurrently, retry", locked.ReceiptNumber)
	}
	return nil
}

func sameId(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// moneyLedgerAccount is the ledger side of a cash or bank movement.
func moneyLedgerAccount(tx *gorm.DB, method models.PaymentMethod, moneyAccount *models.MoneyAccount) (int, error) {
	if moneyAccount != nil {
		return moneyAccount.LedgerAccountId, nil
	}
	code := models.AccountCodeBank
	if method == models.PaymentMethodCash {
		code = models.AccountCodeCash
	}
	account, err := models.GetAccountByCode(tx, code)
	if err != nil {
		return 0, err
	}
	return account.ID, nil
}

// applyReceiptEffects credits the money account and posts Dr cash/bank, Cr AR.
func (l *Ledger) applyReceiptEffects(tx *gorm.DB, userId int, rates models.RateTable, receipt *models.Receipt) error {
	var moneyAccount *models.MoneyAccount
	receipt.AccountAmount = receipt.Amount
	if receipt.MoneyAccountId != nil {
		account, err := utils.FetchModelForUpdate[models.MoneyAccount](tx, "money account", *receipt.MoneyAccountId)
		if err != nil {
			return err
		}
		receipt.AccountAmount = models.RoundMoney(rates.Convert(receipt.Amount, receipt.Currency, account.Currency))
		if moneyAccount, err = models.AdjustMoneyAccountBalance(tx, account.ID, receipt.AccountAmount); err != nil {
			return err
		}
	}
	debitId, err := moneyLedgerAccount(tx, receipt.PaymentMethod, moneyAccount)
	if err != nil {
		return err
	}
	receivable, err := models.GetAccountByCode(tx, models.AccountCodeAccountsReceivable)
	if err != nil {
		return err
	}
	entry, err := models.RecordJournalEntry(tx, l.cache, userId, &models.NewJournalEntry{
		EntryDate:       receipt.ReceiptDate,
		Description:     fmt.Sprintf("Receipt %s", receipt.ReceiptNumber),
		DebitAccountId:  debitId,
		CreditAccountId: receivable.ID,
		Amount:          receipt.BaseAmount,
		ReferenceType:   models.ReferenceTypeReceipt,
		ReferenceId:     receipt.ID,
	})
	if err != nil {
		return err
	}
	receipt.JournalEntryId = &entry.ID
	return tx.Save(receipt).Error
}

// reverseReceiptEffects undoes exactly what applyReceiptEffects stored.
func (l *Ledger) reverseReceiptEffects(tx *gorm.DB, userId int, receipt *models.Receipt, reason string) error {
	if receipt.MoneyAccountId != nil {
		if _, err := models.AdjustMoneyAccountBalance(tx, *receipt.MoneyAccountId, receipt.AccountAmount.Neg()); err != nil {
			return err
		}
	}
	if receipt.JournalEntryId != nil {
		_, err := models.ReverseJournalEntry(tx, l.cache, userId, *receipt.JournalEntryId, reason, models.ReferenceTypeReceipt, receipt.ID)
		if err != nil {
			return err
		}
	}
	return nil
}
