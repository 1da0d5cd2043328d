package stripconfig

import "io/ioutil"

// Store persists one configuration document under a well-known path in the
// flash byte-store. Save is a whole-document overwrite; Load is a whole
// read-then-parse.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Save overwrites the stored document. The in-memory configuration is
// untouched on failure; callers report storage errors via NACK.
func (s *Store) Save(cfg StripConfig) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	return ioutil.WriteFile(s.path, data, 0644)
}

// Load reads the stored document. A missing or malformed file is not fatal:
// it returns the zero configuration and false, and the device boots with
// defaults.
func (s *Store) Load() (StripConfig, bool) {
	data, err := ioutil.ReadFile(s.path)
	if err != nil {
		return StripConfig{}, false
	}
	cfg, err := Unmarshal(data)
	if err != nil {
		return StripConfig{}, false
	}
	return cfg, true
}

// Raw returns the stored document bytes verbatim, for the console's
// getsavedconfig command.
func (s *Store) Raw() ([]byte, error) {
	return ioutil.ReadFile(s.path)
}
