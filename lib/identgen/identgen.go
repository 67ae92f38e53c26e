// Copyright 2026 The Kaalition Authors
// SPDX-License-Identifier: Apache-2.0

// Package identgen generates plausible registration identities: usernames,
// email addresses, passwords, and Cyrillic display names. The platform
// serves a Russian-speaking audience, so generated nicknames are Russian
// full names while usernames and email local parts stay ASCII.
package identgen

import (
	"fmt"
	"math/rand"
	"strings"
)

// DefaultEmailDomains is used by Email when no domain list is supplied.
var DefaultEmailDomains = []string{"gmail.com", "outlook.com", "ya.ru", "hotmail.com"}

var usernameAdjectives = []string{
	"silent", "bright", "lucky", "rapid", "frozen", "cosmic", "hidden",
	"golden", "electric", "crimson", "shadow", "lunar", "iron", "wild",
}

var usernameNouns = []string{
	"wolf", "falcon", "comet", "ember", "river", "storm", "raven",
	"cipher", "drift", "spark", "echo", "vector", "nomad", "pulse",
}

var firstNames = []string{
	"Александр", "Дмитрий", "Максим", "Иван", "Андрей", "Сергей",
	"Анна", "Мария", "Елена", "Ольга", "Наталья", "Екатерина",
}

var lastNames = []string{
	"Иванов", "Смирнов", "Кузнецов", "Попов", "Соколов", "Лебедев",
	"Козлов", "Новиков", "Морозов", "Волков", "Павлов", "Федоров",
}

const (
	passwordLength  = 12
	lowerAlphabet   = "abcdefghijkmnopqrstuvwxyz"
	upperAlphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	digitAlphabet   = "23456789"
	specialAlphabet = "!@#$%^&*_-"
)

// Username returns a random handle like "silent-falcon42".
func Username() string {
	adjective := usernameAdjectives[rand.Intn(len(usernameAdjectives))]
	noun := usernameNouns[rand.Intn(len(usernameNouns))]
	return fmt.Sprintf("%s-%s%d", adjective, noun, rand.Intn(100))
}

// Email returns a random address whose domain is drawn from domains.
// An empty list falls back to DefaultEmailDomains.
func Email(domains []string) string {
	if len(domains) == 0 {
		domains = DefaultEmailDomains
	}
	local := fmt.Sprintf("%s.%s%d",
		usernameAdjectives[rand.Intn(len(usernameAdjectives))],
		usernameNouns[rand.Intn(len(usernameNouns))],
		rand.Intn(1000),
	)
	return local + "@" + domains[rand.Intn(len(domains))]
}

// Password returns a 12-character password guaranteed to contain at least
// one uppercase letter, one digit, and one special character.
func Password() string {
	full := lowerAlphabet + upperAlphabet + digitAlphabet + specialAlphabet
	characters := make([]byte, passwordLength)
	characters[0] = upperAlphabet[rand.Intn(len(upperAlphabet))]
	characters[1] = digitAlphabet[rand.Intn(len(digitAlphabet))]
	characters[2] = specialAlphabet[rand.Intn(len(specialAlphabet))]
	for i := 3; i < passwordLength; i++ {
		characters[i] = full[rand.Intn(len(full))]
	}
	rand.Shuffle(passwordLength, func(i, j int) {
		characters[i], characters[j] = characters[j], characters[i]
	})
	return string(characters)
}

// Nickname returns a random Russian full name for the display-name field.
func Nickname() string {
	return strings.Join([]string{
		firstNames[rand.Intn(len(firstNames))],
		lastNames[rand.Intn(len(lastNames))],
	}, " ")
}
