package zip

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// Zip returns a compressed byte slice of payload
func Zip(payload []byte) (compressed []byte, err error) {
	var handle bytes.Buffer

	zipWriter, err := gzip.NewWriterLevel(&handle, gzip.BestCompression)
	if err != nil {
		return nil, err
	}

	_, err = zipWriter.Write(payload)
	if err != nil {
		return nil, err
	}

	if err = zipWriter.Close(); err != nil {
		return nil, err
	}

	return handle.Bytes(), nil
}

// Unzip returns an uncompressed byte slice of compressed
func Unzip(compressed []byte) (unzipped []byte, err error) {
	zipReader, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("New gzip reader - %v", err)
	}
	defer zipReader.Close()

	return io.ReadAll(zipReader)
}
