package doku

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/PTNUSASATUINTIARTHA-DOKU/doku-golang-library/controllers"
	"github.com/PTNUSASATUINTIARTHA-DOKU/doku-golang-library/doku"
	createVa "github.com/PTNUSASATUINTIARTHA-DOKU/doku-golang-library/models/va/createVa"
	"github.com/sirupsen/logrus"
)

// IDokuService issues virtual accounts a shopper can pay a checkout total into.
type IDokuService interface {
	Init() error
	CreateVirtualAccount(req CreateVaRequest) (*CreateVaResponse, error)
}

type dokuService struct {
	client           *doku.Snap
	partnerServiceId string
	log              *logrus.Logger
}

func NewDokuService(log *logrus.Logger) IDokuService {
	partnerServiceId := os.Getenv("DOKU_PARTNER_SERVICE_ID")
	if partnerServiceId == "" {
		partnerServiceId = "   84923"
	}

	return &dokuService{
		partnerServiceId: partnerServiceId,
		log:              log,
	}
}

func (d *dokuService) Init() error {
	d.log.WithFields(logrus.Fields{
		"client_id":     os.Getenv("DOKU_CLIENT_ID"),
		"is_production": os.Getenv("DOKU_IS_PRODUCTION"),
	}).Info("Initializing Doku client")

	keyPath := os.Getenv("DOKU_PRIVATE_KEY_PATH")
	if keyPath == "" {
		keyPath = "private.key"
	}

	privateKeyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("failed to read private key file: %v", err)
	}
	privateKey := strings.TrimSpace(string(privateKeyPEM))

	if !strings.Contains(privateKey, "-----BEGIN") {
		return fmt.Errorf("invalid private key format")
	}

	isProd, _ := strconv.ParseBool(os.Getenv("DOKU_IS_PRODUCTION"))
	d.client = &doku.Snap{
		PrivateKey:   privateKey,
		PublicKey:    os.Getenv("DOKU_PUBLIC_KEY"),
		ClientId:     os.Getenv("DOKU_CLIENT_ID"),
		SecretKey:    os.Getenv("DOKU_SECRET_KEY"),
		IsProduction: isProd,
	}

	doku.TokenController = &controllers.TokenController{}
	doku.VaController = &controllers.VaController{}

	response := d.client.GetTokenB2B()
	if response.ResponseCode != "2007300" {
		return fmt.Errorf("failed to initialize Doku client: %s", response.ResponseMessage)
	}

	d.log.Info("Doku client initialized")
	return nil
}

func (d *dokuService) CreateVirtualAccount(req CreateVaRequest) (*CreateVaResponse, error) {
	if d.client == nil {
		return nil, fmt.Errorf("doku client not initialized")
	}

	customerNo := CustomerNumber(req.IssuedAt)
	virtualAccountNo := d.partnerServiceId + customerNo

	loc, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		loc = time.FixedZone("WIB", 7*60*60)
	}
	expiredDate := req.IssuedAt.In(loc).Add(req.ExpiredDuration).Format("2006-01-02T15:04:05") + "+07:00"

	createVaRequest := createVa.CreateVaRequestDto{
		PartnerServiceId:   d.partnerServiceId,
		CustomerNo:         customerNo,
		VirtualAccountNo:   virtualAccountNo,
		VirtualAccountName: req.Name,
		TrxId:              req.TrxId,
		TotalAmount: createVa.TotalAmount{
			Value:    FormatAmount(req.Amount),
			Currency: "IDR",
		},
		AdditionalInfo: createVa.AdditionalInfo{
			Channel: req.Bank,
			VirtualAccountConfig: createVa.VirtualAccountConfig{
				ReusableStatus: false,
			},
		},
		VirtualAccountTrxType: "C",
		ExpiredDate:           expiredDate,
	}

	response, err := d.client.CreateVa(createVaRequest)
	if err != nil {
		d.log.WithError(err).Error("Failed to create virtual account")
		return nil, err
	}

	if response.ResponseCode != "2002500" && response.ResponseCode != "2002700" {
		d.log.WithFields(logrus.Fields{
			"response_code":    response.ResponseCode,
			"response_message": response.ResponseMessage,
		}).Error("Failed to create virtual account")
		return nil, fmt.Errorf("failed to create virtual account: %s", response.ResponseMessage)
	}

	if response.VirtualAccountData == nil {
		return nil, fmt.Errorf("virtual account data is nil")
	}

	return &CreateVaResponse{
		VirtualAccountNo:  response.VirtualAccountData.VirtualAccountNo,
		Bank:              req.Bank,
		Amount:            req.Amount,
		TransactionID:     req.TrxId,
		ExpiryDate:        expiredDate,
		VirtualAccountURL: response.VirtualAccountData.AdditionalInfo.HowToPayPage,
	}, nil
}

// FormatAmount renders whole rupiah the way the SNAP API expects.
func FormatAmount(amount int64) string {
	return strconv.FormatInt(amount, 10) + ".00"
}

// CustomerNumber derives an 8 digit customer number from the issue time.
func CustomerNumber(t time.Time) string {
	return fmt.Sprintf("%08d", t.UnixMilli()%100000000)
}
