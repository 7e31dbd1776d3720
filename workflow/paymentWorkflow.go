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

// checkPaymentScope enforces that a restricted caller only pays suppliers
// serving their customers, and only against bookings they can see.
func (l *Ledger) checkPaymentScope(ctx context.Context, scope models.AccessScope, input *models.NewPayment) error {
	if !scope.Customers.Unrestricted {
		suppliers, err := models.AccessibleSupplierIds(ctx, l.db, scope.Customers)
		if err != nil {
			return err
		}
		if !suppliers.Contains(input.SupplierId) {
			return utils.NewAccessDeniedError("supplier", input.SupplierId, "supplier does not serve an assigned customer")
		}
	}
	if input.BookingId == nil {
		return nil
	}
	booking, err := models.GetBooking(ctx, l.db, scope, *input.BookingId)
	if err != nil {
		return err
	}
	if booking.SupplierId > 0 && booking.SupplierId != input.SupplierId {
		return utils.NewValidationError("booking_id", "booking %s is supplied by another supplier", booking.BookingNumber)
	}
	return nil
}

// CreatePayment records money paid to a supplier.
func (l *Ledger) CreatePayment(ctx context.Context, scope models.AccessScope, input *models.NewPayment, idempotencyKey string) (*models.Payment, error) {
	method, err := input.Validate()
	if err != nil {
		return nil, err
	}
	if err := l.checkPaymentScope(ctx, scope, input); err != nil {
		return nil, err
	}
	rates, err := l.rates(ctx)
	if err != nil {
		return nil, err
	}

	var result *models.Payment
	err = l.run(ctx, "CreatePayment", lockKeys(0, nil, []*int{input.MoneyAccountId}), func(tx *gorm.DB) error {
		if id, err := lookupIdempotency(tx, operationCreatePayment, idempotencyKey); err != nil || id > 0 {
			if err == nil {
				result, err = utils.FetchModel[models.Payment](ctx, tx, "payment", id)
			}
			return err
		}
		if err := utils.ValidateResourceId[models.Supplier](ctx, tx, "supplier", input.SupplierId); err != nil {
			return err
		}
		seqNo, err := utils.GetSequence[models.Payment](ctx, tx, l.cache)
		if err != nil {
			return err
		}
		payment := models.Payment{
			PaymentNumber: utils.FormatSequence(models.PaymentPrefix, seqNo),
			SequenceNo:    seqNo,
			CreatedBy:     scope.UserId,
		}
		fillPayment(&payment, input, method, rates, l.now())
		if err := tx.Create(&payment).Error; err != nil {
			return utils.NumberTakenError(err, payment.PaymentNumber)
		}
		if err := l.applyPaymentEffects(tx, scope.UserId, rates, &payment); err != nil {
			return err
		}
		desc := fmt.Sprintf("payment %s of %s %s", payment.PaymentNumber, payment.Amount, payment.Currency)
		if err := models.RecordHistory(tx, scope.UserId, models.HistoryActionCreate, models.ReferenceTypePayment, payment.ID, nil, payment, desc); err != nil {
			return err
		}
		if err := rememberIdempotency(tx, operationCreatePayment, idempotencyKey, scope.UserId, payment.ID); err != nil {
			return err
		}
		result = &payment
		return nil
	})
	return result, err
}

// UpdatePayment reverses the stored effects and applies the new input.
func (l *Ledger) UpdatePayment(ctx context.Context, scope models.AccessScope, id int, input *models.NewPayment) (*models.Payment, error) {
	method, err := input.Validate()
	if err != nil {
		return nil, err
	}
	current, err := models.GetPayment(ctx, l.db, id)
	if err != nil {
		return nil, err
	}
	if err := l.checkPaymentScope(ctx, scope, &models.NewPayment{SupplierId: current.SupplierId, BookingId: current.BookingId}); err != nil {
		return nil, err
	}
	if err := l.checkPaymentScope(ctx, scope, input); err != nil {
		return nil, err
	}
	rates, err := l.rates(ctx)
	if err != nil {
		return nil, err
	}

	var result *models.Payment
	keys := lockKeys(0, nil, []*int{current.MoneyAccountId, input.MoneyAccountId})
	err = l.run(ctx, "UpdatePayment", keys, func(tx *gorm.DB) error {
		if err := utils.ValidateResourceId[models.Supplier](ctx, tx, "supplier", input.SupplierId); err != nil {
			return err
		}
		payment, err := utils.FetchModelForUpdate[models.Payment](tx, "payment", id)
		if err != nil {
			return err
		}
		before := *payment
		if err := l.reversePaymentEffects(tx, scope.UserId, payment, ReversalReasonPaymentUpdate); err != nil {
			return err
		}
		fillPayment(payment, input, method, rates, payment.PaymentDate)
		if err := l.applyPaymentEffects(tx, scope.UserId, rates, payment); err != nil {
			return err
		}
		desc := fmt.Sprintf("payment %s updated", payment.PaymentNumber)
		if err := models.RecordHistory(tx, scope.UserId, models.HistoryActionUpdate, models.ReferenceTypePayment, payment.ID, before, payment, desc); err != nil {
			return err
		}
		result = payment
		return nil
	})
	return result, err
}

// DeletePayment reverses a payment's effects and removes it.
func (l *Ledger) DeletePayment(ctx context.Context, scope models.AccessScope, id int) (*models.Payment, error) {
	current, err := models.GetPayment(ctx, l.db, id)
	if err != nil {
		return nil, err
	}
	if err := l.checkPaymentScope(ctx, scope, &models.NewPayment{SupplierId: current.SupplierId, BookingId: current.BookingId}); err != nil {
		return nil, err
	}
	var result *models.Payment
	err = l.run(ctx, "DeletePayment", lockKeys(0, nil, []*int{current.MoneyAccountId}), func(tx *gorm.DB) error {
		payment, err := utils.FetchModelForUpdate[models.Payment](tx, "payment", id)
		if err != nil {
			return err
		}
		if err := l.reversePaymentEffects(tx, scope.UserId, payment, ReversalReasonPaymentDelete); err != nil {
			return err
		}
		if err := tx.Delete(payment).Error; err != nil {
			return err
		}
		desc := fmt.Sprintf("payment %s deleted", payment.PaymentNumber)
		if err := models.RecordHistory(tx, scope.UserId, models.HistoryActionDelete, models.ReferenceTypePayment, payment.ID, payment, nil, desc); err != nil {
			return err
		}
		result = payment
		return nil
	})
	return result, err
}

func fillPayment(payment *models.Payment, input *models.NewPayment, method models.PaymentMethod, rates models.RateTable, date time.Time) {
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = rates.Base
	}
	amount := models.RoundMoney(*input.Amount)
	payment.SupplierId = input.SupplierId
	payment.BookingId = input.BookingId
	payment.Amount = amount
	payment.Currency = currency
	payment.ExchangeRate = rates.Rate(currency)
	payment.BaseAmount = models.RoundMoney(rates.ToBase(amount, currency))
	payment.PaymentMethod = method
	payment.MoneyAccountId = input.MoneyAccountId
	payment.Reference = input.Reference
	payment.PaymentDate = date
	if input.PaymentDate != nil {
		payment.PaymentDate = *input.PaymentDate
	}
}

// applyPaymentEffects withdraws from the money account and posts Dr AP, Cr cash/bank.
func (l *Ledger) applyPaymentEffects(tx *gorm.DB, userId int, rates models.RateTable, payment *models.Payment) error {
	var moneyAccount *models.MoneyAccount
	payment.AccountAmount = payment.Amount
	if payment.MoneyAccountId != nil {
		account, err := utils.FetchModelForUpdate[models.MoneyAccount](tx, "money account", *payment.MoneyAccountId)
		if err != nil {
			return err
		}
		if payment.PaymentMethod == models.PaymentMethodBank && account.Kind != models.MoneyAccountKindBank {
			return utils.NewValidationError("money_account_id", "money account %s is not a bank account", account.Name)
		}
		payment.AccountAmount = models.RoundMoney(rates.Convert(payment.Amount, payment.Currency, account.Currency))
		if moneyAccount, err = models.AdjustMoneyAccountBalance(tx, account.ID, payment.AccountAmount.Neg()); err != nil {
			return err
		}
	}
	creditId, err := moneyLedgerAccount(tx, payment.PaymentMethod, moneyAccount)
	if err != nil {
		return err
	}
	payable, err := models.GetAccountByCode(tx, models.AccountCodeAccountsPayable)
	if err != nil {
		return err
	}
	entry, err := models.RecordJournalEntry(tx, l.cache, userId, &models.NewJournalEntry{
		EntryDate:       payment.PaymentDate,
		Description:     fmt.Sprintf("Payment %s", payment.PaymentNumber),
		DebitAccountId:  payable.ID,
		CreditAccountId: creditId,
		Amount:          payment.BaseAmount,
		ReferenceType:   models.ReferenceTypePayment,
		ReferenceId:     payment.ID,
	})
	if err != nil {
		return err
	}
	payment.JournalEntryId = &entry.ID
	return tx.Save(payment).Error
}

func (l *Ledger) reversePaymentEffects(tx *gorm.DB, userId int, payment *models.Payment, reason string) error {
	if payment.MoneyAccountId != nil {
		if _, err := models.AdjustMoneyAccountBalance(tx, *payment.MoneyAccountId, payment.AccountAmount); err != nil {
			return err
		}
	}
	if payment.JournalEntryId != nil {
		_, err := models.ReverseJournalEntry(tx, l.cache, userId, *payment.JournalEntryId, reason, models.ReferenceTypePayment, payment.ID)
		if err != nil {
			return err
		}
	}
	return nil
}
