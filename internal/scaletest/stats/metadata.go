package stats

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

func WriteMetadata(out io.Writer, metadata map[string]interface{}) error {
	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}
	data = append(data, '\n')
	_, err = out.Write(data)
	return errors.WithStack(err)
}

func ReadMetadata(in io.Reader) (map[string]interface{}, error) {
	metadata := make(map[string]interface{})
	if err := json.NewDecoder(in).Decode(&metadata); err != nil {
		return nil, errors.WithMessage(err, "error decoding metadata")
	}
	return metadata, nil
}
