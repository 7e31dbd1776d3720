package models

import (
	"encoding/json"
	"errors"
	"strings"
)

func unmarshalEnum[T ~string](data []byte, values map[string]T, name string) (T, error) {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return "", errors.New(name + " must be string")
	}
	v, ok := values[strings.ToUpper(strings.TrimSpace(str))]
	if !ok {
		return "", errors.New("invalid " + name)
	}
	return v, nil
}

type ServiceType string

const (
	ServiceTypeFlight    ServiceType = "FLIGHT"
	ServiceTypeHotel     ServiceType = "HOTEL"
	ServiceTypeVisa      ServiceType = "VISA"
	ServiceTypeTransfer  ServiceType = "TRANSFER"
	ServiceTypeCruise    ServiceType = "CRUISE"
	ServiceTypeRentalCar ServiceType = "RENTAL_CAR"
	ServiceTypeTrain     ServiceType = "TRAIN"
	ServiceTypeActivity  ServiceType = "ACTIVITY"
)

var serviceTypes = map[string]ServiceType{
	"FLIGHT":     ServiceTypeFlight,
	"HOTEL":      ServiceTypeHotel,
	"VISA":       ServiceTypeVisa,
	"TRANSFER":   ServiceTypeTransfer,
	"CRUISE":     ServiceTypeCruise,
	"RENTAL_CAR": ServiceTypeRentalCar,
	"TRAIN":      ServiceTypeTrain,
	"ACTIVITY":   ServiceTypeActivity,
}

func (t ServiceType) IsValid() bool {
	_, ok := serviceTypes[string(t)]
	return ok
}

func (t *ServiceType) UnmarshalJSON(data []byte) (err error) {
	*t, err = unmarshalEnum(data, serviceTypes, "service type")
	return err
}

type BookingStatus string

const (
	BookingStatusDraft     BookingStatus = "DRAFT"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusComplete  BookingStatus = "COMPLETE"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusRefund    BookingStatus = "REFUND"
)

// IsTerminal reports statuses no propagation may move a booking out of.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusRefund
}

type InvoiceStatus string

const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"
	InvoiceStatusUnpaid        InvoiceStatus = "UNPAID"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusOverdue       InvoiceStatus = "OVERDUE"
	InvoiceStatusCancelled     InvoiceStatus = "CANCELLED"
)

var invoiceStatuses = map[string]InvoiceStatus{
	"DRAFT":          InvoiceStatusDraft,
	"UNPAID":         InvoiceStatusUnpaid,
	"PARTIALLY_PAID": InvoiceStatusPartiallyPaid,
	"PAID":           InvoiceStatusPaid,
	"OVERDUE":        InvoiceStatusOverdue,
	"CANCELLED":      InvoiceStatusCancelled,
}

func (s *InvoiceStatus) UnmarshalJSON(data []byte) (err error) {
	*s, err = unmarshalEnum(data, invoiceStatuses, "invoice status")
	return err
}

// AcceptsReceipts is false for invoices not yet issued or already closed.
func (s InvoiceStatus) AcceptsReceipts() bool {
	return s != InvoiceStatusDraft && s != InvoiceStatusCancelled
}

type ReceiptStatus string

const (
	ReceiptStatusActive    ReceiptStatus = "ACTIVE"
	ReceiptStatusCancelled ReceiptStatus = "CANCELLED"
)

type MatchStatus string

const (
	MatchStatusUnmatched MatchStatus = "UNMATCHED"
	MatchStatusMatched   MatchStatus = "MATCHED"
)

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodBank   PaymentMethod = "BANK"
	PaymentMethodCard   PaymentMethod = "CARD"
	PaymentMethodCheque PaymentMethod = "CHEQUE"
)

var paymentMethods = map[string]PaymentMethod{
	"CASH":   PaymentMethodCash,
	"BANK":   PaymentMethodBank,
	"CARD":   PaymentMethodCard,
	"CHEQUE": PaymentMethodCheque,
}

func (m PaymentMethod) IsValid() bool {
	_, ok := paymentMethods[string(m)]
	return ok
}

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	m, ok := paymentMethods[strings.ToUpper(strings.TrimSpace(s))]
	return m, ok
}

type JournalStatus string

const (
	JournalStatusDraft  JournalStatus = "DRAFT"
	JournalStatusPosted JournalStatus = "POSTED"
)

type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeIncome    AccountType = "INCOME"
	AccountTypeExpense   AccountType = "EXPENSE"
)

var accountTypes = map[string]AccountType{
	"ASSET":     AccountTypeAsset,
	"LIABILITY": AccountTypeLiability,
	"EQUITY":    AccountTypeEquity,
	"INCOME":    AccountTypeIncome,
	"EXPENSE":   AccountTypeExpense,
}

func (t AccountType) IsValid() bool {
	_, ok := accountTypes[string(t)]
	return ok
}

func (t *AccountType) UnmarshalJSON(data []byte) (err error) {
	*t, err = unmarshalEnum(data, accountTypes, "account type")
	return err
}

type MoneyAccountKind string

const (
	MoneyAccountKindBank         MoneyAccountKind = "BANK"
	MoneyAccountKindCashRegister MoneyAccountKind = "CASH_REGISTER"
)

type UserRole string

const (
	UserRoleSuperAdmin          UserRole = "SUPER_ADMIN"
	UserRoleAdmin               UserRole = "ADMIN"
	UserRoleAccountant          UserRole = "ACCOUNTANT"
	UserRoleFinancialController UserRole = "FINANCIAL_CONTROLLER"
	UserRoleSalesAgent          UserRole = "SALES_AGENT"
	UserRoleCustomerService     UserRole = "CUSTOMER_SERVICE"
	UserRoleOperations          UserRole = "OPERATIONS"
)

var userRoles = map[string]UserRole{
	"SUPER_ADMIN":          UserRoleSuperAdmin,
	"ADMIN":                UserRoleAdmin,
	"ACCOUNTANT":           UserRoleAccountant,
	"FINANCIAL_CONTROLLER": UserRoleFinancialController,
	"SALES_AGENT":          UserRoleSalesAgent,
	"CUSTOMER_SERVICE":     UserRoleCustomerService,
	"OPERATIONS":           UserRoleOperations,
}

func (r UserRole) IsValid() bool {
	_, ok := userRoles[string(r)]
	return ok
}

func (r *UserRole) UnmarshalJSON(data []byte) (err error) {
	*r, err = unmarshalEnum(data, userRoles, "user role")
	return err
}

// IsAdminClass roles see every customer's records.
func (r UserRole) IsAdminClass() bool {
	switch r {
	case UserRoleSuperAdmin, UserRoleAdmin, UserRoleAccountant, UserRoleFinancialController:
		return true
	}
	return false
}

type AssignedRole string

const (
	AssignedRoleSalesAgent      AssignedRole = "SALES_AGENT"
	AssignedRoleCustomerService AssignedRole = "CUSTOMER_SERVICE"
	AssignedRoleAccountManager  AssignedRole = "ACCOUNT_MANAGER"
)

var assignedRoles = map[string]AssignedRole{
	"SALES_AGENT":      AssignedRoleSalesAgent,
	"CUSTOMER_SERVICE": AssignedRoleCustomerService,
	"ACCOUNT_MANAGER":  AssignedRoleAccountManager,
}

func (r AssignedRole) IsValid() bool {
	_, ok := assignedRoles[string(r)]
	return ok
}

func (r *AssignedRole) UnmarshalJSON(data []byte) (err error) {
	*r, err = unmarshalEnum(data, assignedRoles, "assigned role")
	return err
}

type ReferenceType string

const (
	ReferenceTypeBooking       ReferenceType = "BOOKING"
	ReferenceTypeBookingRefund ReferenceType = "BOOKING_REFUND"
	ReferenceTypeReceipt       ReferenceType = "RECEIPT"
	ReferenceTypePayment       ReferenceType = "PAYMENT"
	ReferenceTypeManual        ReferenceType = "MANUAL"
	ReferenceTypeInvoice       ReferenceType = "INVOICE"
	ReferenceTypeJournal       ReferenceType = "JOURNAL"
)
