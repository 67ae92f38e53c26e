// Copyright 2026 The Kaalition Authors
// SPDX-License-Identifier: Apache-2.0

package identgen

import (
	"strings"
	"testing"
)

func TestUsername(t *testing.T) {
	for i := 0; i < 50; i++ {
		username := Username()
		if username == "" || !strings.Contains(username, "-") {
			t.Fatalf("Username() = %q", username)
		}
		for _, r := range username {
			if r > 127 {
				t.Fatalf("Username() = %q contains non-ASCII", username)
			}
		}
	}
}

func TestEmail(t *testing.T) {
	t.Run("default domains", func(t *testing.T) {
		for i := 0; i < 50; i++ {
			email := Email(nil)
			at := strings.LastIndex(email, "@")
			if at <= 0 {
				t.Fatalf("Email() = %q", email)
			}
			domain := email[at+1:]
			found := false
			for _, d := range DefaultEmailDomains {
				if d == domain {
					found = true
					break
				}
			}
			if !found {
				t.Fatalf("Email() = %q uses unknown domain %q", email, domain)
			}
		}
	})

	t.Run("explicit domain", func(t *testing.T) {
		for i := 0; i < 20; i++ {
			email := Email([]string{"example.com"})
			if !strings.HasSuffix(email, "@example.com") {
				t.Fatalf("Email() = %q", email)
			}
		}
	})
}

func TestPassword(t *testing.T) {
	for i := 0; i < 50; i++ {
		password := Password()
		if len(password) != passwordLength {
			t.Fatalf("Password() length = %d", len(password))
		}
		var hasUpper, hasDigit, hasSpecial bool
		for _, r := range password {
			switch {
			case strings.ContainsRune(upperAlphabet, r):
				hasUpper = true
			case strings.ContainsRune(digitAlphabet, r):
				hasDigit = true
			case strings.ContainsRune(specialAlphabet, r):
				hasSpecial = true
			}
		}
		if !hasUpper || !hasDigit || !hasSpecial {
			t.Fatalf("Password() = %q missing a required class", password)
		}
	}
}

func TestNickname(t *testing.T) {
	for i := 0; i < 20; i++ {
		nickname := Nickname()
		parts := strings.Split(nickname, " ")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			t.Fatalf("Nickname() = %q", nickname)
		}
	}
}
