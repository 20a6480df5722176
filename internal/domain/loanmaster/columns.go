package loanmaster

// Source dataset names. They double as CSV file stems and SQL table names.
const (
	Customers    = "customers"
	Loans        = "loans"
	Applications = "applications"
	Transactions = "transactions"
	Defaults     = "defaults"
	Branches     = "branches"
)

// Keys
const (
	LoanID     = "Loan_ID"
	CustomerID = "Customer_ID"
)

// Loans
const (
	DisbursalDate      = "Disbursal_Date"
	RepaymentStartDate = "Repayment_Start_Date"
	RepaymentEndDate   = "Repayment_End_Date"
	EMIAmount          = "EMI_Amount"
)

// Applications
const (
	ApplicationDate = "Application_Date"
	ApprovalDate    = "Approval_Date"
	ApprovalStatus  = "Approval_Status"
	LoanPurpose     = "Loan_Purpose"
	SourceChannel   = "Source_Channel"
	ProcessingFee   = "Processing_Fee"

	StatusApproved = "Approved"
)

// Transactions
const TransactionDate = "Transaction_Date"

// Defaults
const (
	DefaultDate    = "Default_Date"
	DefaultAmount  = "Default_Amount"
	RecoveryAmount = "Recovery_Amount"
	RecoveryStatus = "Recovery_Status"
	LegalAction    = "Legal_Action"
)

// Customers
const (
	AnnualIncome = "Annual_Income"
	CreditScore  = "Credit_Score"
)

// Derived
const (
	DefaultFlag        = "Default_Flag"
	RecoveryRate       = "Recovery_Rate"
	ProcessingTimeDays = "Processing_Time_Days"
	IncomeBand         = "Income_Band"
	CreditScoreBand    = "Credit_Score_Band"
	EMIToIncomeRatio   = "EMI_to_Income_Ratio"
	LoanAgeMonths      = "Loan_Age_Months"
)

// DateColumns lists the text columns normalised to dates, per dataset.
var DateColumns = map[string][]string{
	Loans:        {DisbursalDate, RepaymentStartDate, RepaymentEndDate},
	Applications: {ApplicationDate, ApprovalDate},
	Transactions: {TransactionDate},
	Defaults:     {DefaultDate},
}

// DefaultProjection is the slice of a default record carried onto the loan master.
var DefaultProjection = []string{
	LoanID, DefaultFlag, DefaultAmount, RecoveryAmount, RecoveryStatus, LegalAction, DefaultDate,
}

// ApplicationProjection is the slice of an approved application carried onto the loan master.
var ApplicationProjection = []string{
	LoanID, ApplicationDate, ApprovalDate, LoanPurpose, SourceChannel, ProcessingFee,
}
