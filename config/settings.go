package config

import (
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type WebSettings struct {
	Addr string `yaml:"addr"`
}

func (s *WebSettings) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Addr, validation.Required),
	)
}

type DataSettings struct {
	Dir   string `yaml:"dir"`
	Watch bool   `yaml:"watch"`
}

func (s *DataSettings) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Dir, validation.Required),
	)
}

type PreviewSettings struct {
	Size        int `yaml:"size"`
	Supersample int `yaml:"supersample"`
}

func (s *PreviewSettings) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Size, validation.Required, validation.Min(16), validation.Max(4096)),
		validation.Field(&s.Supersample, validation.Required, validation.Min(1), validation.Max(8)),
	)
}

type BatchSettings struct {
	Jobs int `yaml:"jobs"`
}

func (s *BatchSettings) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.Jobs, validation.Required, validation.Min(1), validation.Max(256)),
	)
}

type WeightSettings struct {
	// vertices whose weight sum is below this get bound to the closest bone
	FallbackThreshold float32 `yaml:"fallback_threshold"`
}

func (s *WeightSettings) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.FallbackThreshold, validation.Min(float32(0)), validation.Max(float32(1))),
	)
}

type Settings struct {
	Web      WebSettings     `yaml:"web"`
	Data     DataSettings    `yaml:"data"`
	Preview  PreviewSettings `yaml:"preview"`
	Batch    BatchSettings   `yaml:"batch"`
	Weights  WeightSettings  `yaml:"weights"`
	Encoding string          `yaml:"encoding"`
}

func (s *Settings) Validate() error {
	if err := s.Web.Validate(); err != nil {
		return errors.Wrapf(err, "web")
	}
	if err := s.Data.Validate(); err != nil {
		return errors.Wrapf(err, "data")
	}
	if err := s.Preview.Validate(); err != nil {
		return errors.Wrapf(err, "preview")
	}
	if err := s.Batch.Validate(); err != nil {
		return errors.Wrapf(err, "batch")
	}
	if err := s.Weights.Validate(); err != nil {
		return errors.Wrapf(err, "weights")
	}
	return validation.Validate(s.Encoding, validation.Required, validation.By(func(v interface{}) error {
		if findCharmap(v.(string)) == nil {
			return errors.Errorf("unknown encoding %q", v)
		}
		return nil
	}))
}

// Apply pushes process-wide parts of the settings (string codepage) into effect.
func (s *Settings) Apply() error {
	return SetEncoding(s.Encoding)
}

func DefaultSettings() *Settings {
	return &Settings{
		Web:  WebSettings{Addr: ":8000"},
		Data: DataSettings{Dir: ".", Watch: true},
		Preview: PreviewSettings{
			Size:        256,
			Supersample: 4,
		},
		Batch:    BatchSettings{Jobs: 4},
		Weights:  WeightSettings{FallbackThreshold: 0.99},
		Encoding: GetEncoding().String(),
	}
}

// LoadSettings reads a yaml settings file on top of the defaults.
// Environment variables in the file are expanded before parsing.
func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read settings %q", path)
	}

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), s); err != nil {
		return nil, errors.Wrapf(err, "Failed to parse settings %q", path)
	}

	if err := s.Validate(); err != nil {
		return nil, errors.Wrapf(err, "Invalid settings %q", path)
	}

	return s, nil
}
