package pincrypt

const minPINLen = 4

// Strength is the verdict of the PIN policy check.
type Strength struct {
	Strong bool
	Reason string
}

// CheckPINStrength rejects trivially weak PINs before any key material is
// derived from them. "0000" and "1234" fail; a mixed string like "Tg7!qX2z"
// passes.
func CheckPINStrength(pin string) Strength {
	if len(pin) < minPINLen {
		return Strength{Reason: "pin is too short"}
	}

	allSame := true
	for i := 1; i < len(pin); i++ {
		if pin[i] != pin[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return Strength{Reason: "pin is a single repeated character"}
	}

	if isDigitRun(pin, 1) || isDigitRun(pin, -1) {
		return Strength{Reason: "pin is a sequential digit run"}
	}

	return Strength{Strong: true}
}

// isDigitRun reports whether pin is digits stepping uniformly by step,
// e.g. "1234" or "9876".
func isDigitRun(pin string, step int) bool {
	for i, c := range pin {
		if c < '0' || c > '9' {
			return false
		}
		if i > 0 && int(c) != int(pin[i-1])+step {
			return false
		}
	}
	return true
}
