package payments

import "testing"

func TestSignVerifyRoundTrip(t *testing.T) {
	sig := Sign("test-secret", "order_123", "pay_456")
	if !VerifySignature("test-secret", "order_123", "pay_456", sig) {
		t.Fatal("correctly computed signature was rejected")
	}
}

// Any single-bit mutation of a valid signature must be rejected.
func TestSingleBitMutationRejected(t *testing.T) {
	secret := "test-secret"
	sig := Sign(secret, "order_123", "pay_456")

	for i := 0; i < len(sig); i++ {
		for bit := uint(0); bit < 8; bit++ {
			mutated := []byte(sig)
			mutated[i] ^= 1 << bit
			if string(mutated) == sig {
				continue
			}
			if VerifySignature(secret, "order_123", "pay_456", string(mutated)) {
				t.Fatalf("mutated signature accepted (byte %d, bit %d)", i, bit)
			}
		}
	}
}

func TestSignatureOverTamperedPaymentRejected(t *testing.T) {
	secret := "test-secret"
	sig := Sign(secret, "order_123", "pay_456")
	if VerifySignature(secret, "order_123", "pay_457", sig) {
		t.Fatal("signature accepted for a different payment id")
	}
	if VerifySignature(secret, "order_124", "pay_456", sig) {
		t.Fatal("signature accepted for a different order id")
	}
	if VerifySignature("other-secret", "order_123", "pay_456", sig) {
		t.Fatal("signature accepted under a different secret")
	}
}

func TestEmptySignatureRejected(t *testing.T) {
	if VerifySignature("test-secret", "order_123", "pay_456", "") {
		t.Fatal("empty signature accepted")
	}
}
