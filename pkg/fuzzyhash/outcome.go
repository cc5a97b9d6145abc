package fuzzyhash

import "strconv"

// RouletteSlots is the number of pockets on a single-zero wheel (0..36).
const RouletteSlots = 37

// SpinResult derives a roulette number from seed|timestamp|bet.
func SpinResult(seed string, timestamp int64, bet int) (int, error) {
	return HashToRange([]string{
		seed,
		strconv.FormatInt(timestamp, 10),
		strconv.Itoa(bet),
	}, RouletteSlots)
}

// PlayerActionDigest tags a player action as action|input|bet|session.
func PlayerActionDigest(input string, bet int, sessionID string) (string, error) {
	return HexString(JoinSeed(Delimiter, "action", input, strconv.Itoa(bet), sessionID))
}

// RoundOutcome derives the outcome of one betting round from
// session|round|choice|amount.
func RoundOutcome(session string, round int, choice string, amount int, modulus int) (int, error) {
	return HashToRange([]string{
		session,
		strconv.Itoa(round),
		choice,
		strconv.Itoa(amount),
	}, modulus)
}
