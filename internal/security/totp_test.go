package security

import (
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
)

func TestTOTPGenerateAndValidate(t *testing.T) {
	key, errGen := GenerateTOTPSecret("root")
	if errGen != nil {
		t.Fatalf("generate secret: %v", errGen)
	}
	if key.Secret() == "" {
		t.Fatal("empty secret")
	}

	code, errCode := totp.GenerateCode(key.Secret(), time.Now())
	if errCode != nil {
		t.Fatalf("generate code: %v", errCode)
	}
	if !ValidateTOTP(key.Secret(), code) {
		t.Fatal("valid code rejected")
	}
	if ValidateTOTP(key.Secret(), "000000") && code != "000000" {
		t.Fatal("bogus code accepted")
	}
}
