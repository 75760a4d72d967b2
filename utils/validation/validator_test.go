package validation

import "testing"

func TestValidateIPv4(t *testing.T) {
	valid := []string{
		"0.0.0.0",
		"10.0.0.5",
		"192.168.1.254",
		"255.255.255.255",
	}
	for _, ip := range valid {
		if !ValidateIPv4(ip) {
			t.Errorf("ValidateIPv4(%q) = false, want true", ip)
		}
	}

	invalid := []string{
		"",
		"999.1.1.1",
		"1.2.3",
		"1.2.3.4.5",
		"1.2.3.256",
		"01.2.3.4",
		"1.2.3.4 ",
		" 1.2.3.4",
		"a.b.c.d",
		"1.2.3.-4",
		"1..3.4",
	}
	for _, ip := range invalid {
		if ValidateIPv4(ip) {
			t.Errorf("ValidateIPv4(%q) = true, want false", ip)
		}
	}
}

func TestValidateMAC(t *testing.T) {
	valid := []string{
		"AA:BB:CC:DD:EE:FF",
		"aa:bb:cc:dd:ee:ff",
		"00-11-22-33-44-55",
	}
	for _, mac := range valid {
		if !ValidateMAC(mac) {
			t.Errorf("ValidateMAC(%q) = false, want true", mac)
		}
	}

	invalid := []string{
		"",
		"AA:BB:CC:DD:EE",
		"AA:BB:CC:DD:EE:FF:00",
		"GG:BB:CC:DD:EE:FF",
		"AA:BB-CC:DD:EE:FF",
		"AABBCCDDEEFF",
	}
	for _, mac := range invalid {
		if ValidateMAC(mac) {
			t.Errorf("ValidateMAC(%q) = true, want false", mac)
		}
	}
}

func TestValidateRFID(t *testing.T) {
	valid := []string{
		"ABCD1234",
		"abcdef123456",
		"0123456789ABCDEF01234567",
	}
	for _, rfid := range valid {
		if !ValidateRFID(rfid) {
			t.Errorf("ValidateRFID(%q) = false, want true", rfid)
		}
	}

	invalid := []string{
		"",
		"ABC123",                    // too short
		"0123456789ABCDEF012345678", // too long
		"XYZ1234W",
		"ABCD 1234",
	}
	for _, rfid := range invalid {
		if ValidateRFID(rfid) {
			t.Errorf("ValidateRFID(%q) = true, want false", rfid)
		}
	}
}

func TestValidateStruct(t *testing.T) {
	type payload struct {
		Email string `validate:"required,email"`
		Name  string `validate:"required,min=2"`
	}

	v := NewValidator()

	if err := v.ValidateStruct(payload{Email: "ops@example.com", Name: "Ops"}); err != nil {
		t.Errorf("valid struct rejected: %v", err)
	}

	err := v.ValidateStruct(payload{Email: "not-an-email", Name: "X"})
	if err == nil {
		t.Fatal("invalid struct accepted")
	}
	fields := FormatValidationErrors(err)
	if fields["email"] == "" || fields["name"] == "" {
		t.Errorf("formatted errors missing fields: %v", fields)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  hello\x00world  "); got != "helloworld" {
		t.Errorf("SanitizeString = %q", got)
	}
}
