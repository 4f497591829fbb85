package utils

import (
	"io"
	"os"
)

const (
	// sniffLength defines the maximum number of bytes read when detecting binary content.
	sniffLength = 8 * 1024
	// nonTextRatioLimit is the share of non-text bytes above which a sample is binary.
	nonTextRatioLimit = 0.30
)

// textBytes marks every byte value that may appear in a text file.
var textBytes = buildTextByteTable()

func buildTextByteTable() [256]bool {
	var table [256]bool
	for _, controlByte := range []byte{'\t', '\n', '\f', '\r', 0x1b} {
		table[controlByte] = true
	}
	for byteValue := 0x20; byteValue < 0x100; byteValue++ {
		if byteValue == 0x7f {
			continue
		}
		table[byteValue] = true
	}
	return table
}

// IsBinary reports whether the provided sample appears to contain binary data.
// A sample is binary when it contains a NUL byte or when more than 30% of its
// bytes fall outside the text byte set. Empty samples are text.
func IsBinary(sample []byte) bool {
	if len(sample) == 0 {
		return false
	}
	nonTextCount := 0
	for _, byteValue := range sample {
		if byteValue == 0 {
			return true
		}
		if !textBytes[byteValue] {
			nonTextCount++
		}
	}
	return float64(nonTextCount)/float64(len(sample)) > nonTextRatioLimit
}

// IsFileBinary reads up to sniffLength bytes from the file at path and determines
// if the content appears to be binary. Read failures report false; the caller's
// content read surfaces them.
func IsFileBinary(path string) bool {
	fileHandle, openError := os.Open(path)
	if openError != nil {
		return false
	}
	defer fileHandle.Close()

	buffer := make([]byte, sniffLength)
	bytesRead, readError := io.ReadFull(fileHandle, buffer)
	if readError != nil && readError != io.EOF && readError != io.ErrUnexpectedEOF {
		return false
	}
	return IsBinary(buffer[:bytesRead])
}
