// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package serialfactory

// UpdateChecksum folds one byte into a running CRC-8 (poly 0x07, MSB-first)
func UpdateChecksum(crc, b byte) byte {
	crc ^= b
	for i := 0; i < 8; i++ {
		if crc&0x80 != 0 {
			crc = (crc << 1) ^ crcPolynomial
		} else {
			crc <<= 1
		}
	}
	return crc
}

// Checksum computes the CRC-8 of data
func Checksum(data []byte) byte {
	crc := byte(crcInitial)
	for _, b := range data {
		crc = UpdateChecksum(crc, b)
	}
	return crc
}
