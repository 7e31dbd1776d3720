package workflow

// Reasons written into the description of reversal journal entries.
const (
	ReversalReasonBookingUpdate  = "Booking update"
	ReversalReasonBookingCancel  = "Booking cancellation"
	ReversalReasonReceiptUpdate  = "Receipt update"
	ReversalReasonReceiptVoid    = "Receipt void"
	ReversalReasonReceiptDelete  = "Receipt delete"
	ReversalReasonPaymentUpdate  = "Payment update"
	ReversalReasonPaymentDelete  = "Payment delete"
	ReversalReasonManualReversal = "Manual reversal"
)
