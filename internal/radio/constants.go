// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package radio

// bandwidth settings for AT+PARAMETER
const (
	Bandwidth7_8KHz   uint8 = 0 // not recommended
	Bandwidth10_4KHz  uint8 = 1 // not recommended
	Bandwidth15_6KHz  uint8 = 2
	Bandwidth20_8KHz  uint8 = 3
	Bandwidth31_25KHz uint8 = 4
	Bandwidth41_7KHz  uint8 = 5
	Bandwidth62_5KHz  uint8 = 6
	Bandwidth125KHz   uint8 = 7
	Bandwidth250KHz   uint8 = 8
	Bandwidth500KHz   uint8 = 9
)

// center frequencies, Hz
const (
	BandUSA     uint32 = 915000000
	BandEurope  uint32 = 868000000
	BandEurope2 uint32 = 433000000
	BandChina   uint32 = 470000000
	BandIndia   uint32 = 865000000
	BandKorea   uint32 = 920000000
)

// MaxPayload is the largest frame the modem accepts.
const MaxPayload = 240

// result codes
const (
	ResultOK         = 0
	ResultNoEnter    = 1  // missing "\r\n" after command
	ResultNoAT       = 2  // command does not start with AT
	ResultNoEquals   = 3  // missing "=" in command
	ResultUnknownCmd = 4  // unknown command
	ResultTxTimeout  = 10 // transmit over time
	ResultRxTimeout  = 11 // receive over time
	ResultCRC        = 12 // CRC error
	ResultTxOverrun  = 13 // payload over 240 bytes
	ResultUnknown    = 15 // unknown error
)

func describe(code int) string {
	switch code {
	case ResultOK:
		return "ok"
	case ResultNoEnter:
		return "missing line terminator"
	case ResultNoAT:
		return "missing AT prefix"
	case ResultNoEquals:
		return "missing '='"
	case ResultUnknownCmd:
		return "unknown command"
	case ResultTxTimeout:
		return "transmit timeout"
	case ResultRxTimeout:
		return "receive timeout"
	case ResultCRC:
		return "crc error"
	case ResultTxOverrun:
		return "payload too long"
	default:
		return "unknown error"
	}
}

// BandwidthFromKHz maps a bandwidth in kHz onto the AT+PARAMETER index.
func BandwidthFromKHz(khz float64) (uint8, bool) {
	table := []struct {
		khz float64
		bw  uint8
	}{
		{7.8, Bandwidth7_8KHz},
		{10.4, Bandwidth10_4KHz},
		{15.6, Bandwidth15_6KHz},
		{20.8, Bandwidth20_8KHz},
		{31.25, Bandwidth31_25KHz},
		{41.7, Bandwidth41_7KHz},
		{62.5, Bandwidth62_5KHz},
		{125, Bandwidth125KHz},
		{250, Bandwidth250KHz},
		{500, Bandwidth500KHz},
	}
	for _, e := range table {
		if e.khz == khz {
			return e.bw, true
		}
	}
	return 0, false
}
