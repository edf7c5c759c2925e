package doku

import "time"

const (
	BankBCA      = "VIRTUAL_ACCOUNT_BCA"
	BankMANDIRI  = "VIRTUAL_ACCOUNT_BANK_MANDIRI"
	BankBRI      = "VIRTUAL_ACCOUNT_BRI"
	BankBNI      = "VIRTUAL_ACCOUNT_BNI"
	BankDANAMON  = "VIRTUAL_ACCOUNT_BANK_DANAMON"
	BankPERMATA  = "VIRTUAL_ACCOUNT_BANK_PERMATA"
	BankMAYBANK  = "VIRTUAL_ACCOUNT_MAYBANK"
	BankBTN      = "VIRTUAL_ACCOUNT_BTN"
	BankBSI      = "VIRTUAL_ACCOUNT_BSI"
	BankCIMB     = "VIRTUAL_ACCOUNT_BANK_CIMB"
	BankSINARMAS = "VIRTUAL_ACCOUNT_SINARMAS"
	BankDOKU     = "VIRTUAL_ACCOUNT_DOKU"
)

var supportedBanks = map[string]struct{}{
	BankBCA: {}, BankMANDIRI: {}, BankBRI: {}, BankBNI: {}, BankDANAMON: {}, BankPERMATA: {},
	BankMAYBANK: {}, BankBTN: {}, BankBSI: {}, BankCIMB: {}, BankSINARMAS: {}, BankDOKU: {},
}

func IsSupportedBank(bank string) bool {
	_, ok := supportedBanks[bank]
	return ok
}

type CreateVaRequest struct {
	Name            string
	Amount          int64
	TrxId           string
	Bank            string
	IssuedAt        time.Time
	ExpiredDuration time.Duration
}

type CreateVaResponse struct {
	VirtualAccountNo  string
	Bank              string
	Amount            int64
	TransactionID     string
	ExpiryDate        string
	VirtualAccountURL string
}
