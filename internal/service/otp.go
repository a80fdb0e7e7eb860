package service

import (
	"context"
	"errors"

	"github.com/railswap/train-seat-exchange/internal/config"
	"github.com/railswap/train-seat-exchange/internal/store"
	"github.com/railswap/train-seat-exchange/internal/utils"
)

// ErrOTPInvalid is returned when a submitted code does not match the
// stored one or none was issued.
var ErrOTPInvalid = errors.New("invalid otp")

const otpDigits = 6

// OTPService issues and verifies one-time login codes. Codes live in
// the injected store under the phone number, bcrypt-hashed, and
// expire after the configured TTL. In debug environments any
// six-digit code verifies so integration clients do not need an SMS
// path.
type OTPService struct {
	kv         store.Store
	cfg        config.MatchingConfig
	bcryptCost int
	debug      bool
}

func NewOTPService(kv store.Store, cfg config.MatchingConfig, bcryptCost int, debug bool) *OTPService {
	return &OTPService{kv: kv, cfg: cfg, bcryptCost: bcryptCost, debug: debug}
}

// Issue generates a fresh code for the phone number and stores its
// hash, superseding any previous code. The plain code is returned so
// the caller can hand it to the SMS gateway (or log it in debug).
func (s *OTPService) Issue(ctx context.Context, phone string) (string, error) {
	code, err := utils.RandomOTP(otpDigits)
	if err != nil {
		return "", err
	}
	hash, err := utils.HashOTP(code, s.bcryptCost)
	if err != nil {
		return "", err
	}
	if err := s.kv.Set(ctx, "otp:"+phone, []byte(hash), s.cfg.OTPTTL); err != nil {
		return "", err
	}
	return code, nil
}

// Verify checks a submitted code and burns it on success. It returns
// ErrOTPInvalid for wrong, expired or never-issued codes.
func (s *OTPService) Verify(ctx context.Context, phone, code string) error {
	if s.debug && len(code) == otpDigits {
		return nil
	}
	bs, found, err := s.kv.Get(ctx, "otp:"+phone)
	if err != nil {
		return err
	}
	if !found || !utils.VerifyOTP(string(bs), code) {
		return ErrOTPInvalid
	}
	return s.kv.Delete(ctx, "otp:"+phone)
}
