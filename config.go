package basecamp

import (
	"fmt"
	"os"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvAccountID = "BASECAMP_ACCOUNT_ID"
	EnvAppName   = "BASECAMP_APP_NAME"
	EnvToken     = "BASECAMP_TOKEN"
	EnvLogin     = "BASECAMP_LOGIN"
	EnvPassword  = "BASECAMP_PASSWORD"
)

// Account identifies the Basecamp account and the credentials used for it.
// When Login and Password are both set they win over Token.
type Account struct {
	AccountID string `json:"account_id" yaml:"account_id"`
	AppName   string `json:"app_name" yaml:"app_name"`
	Token     string `json:"token,omitempty" yaml:"token,omitempty"`
	Login     string `json:"login,omitempty" yaml:"login,omitempty"`
	Password  string `json:"password,omitempty" yaml:"password,omitempty"`
}

var accountIDPattern = regexp.MustCompile(`^[^/\s?#]+$`)

// Validate checks the fields the pipeline relies on.
func (a Account) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.AccountID, validation.Required, validation.Match(accountIDPattern)),
		validation.Field(&a.AppName, validation.Required),
		validation.Field(&a.Login, validation.When(a.Password != "", validation.Required.Error("is required when password is set"))),
		validation.Field(&a.Password, validation.When(a.Login != "", validation.Required.Error("is required when login is set"))),
	)
}

// ApplyEnv returns a copy of a with every non-empty BASECAMP_* variable
// taking precedence over the corresponding field.
func (a Account) ApplyEnv() Account {
	overlay := map[string]*string{
		EnvAccountID: &a.AccountID,
		EnvAppName:   &a.AppName,
		EnvToken:     &a.Token,
		EnvLogin:     &a.Login,
		EnvPassword:  &a.Password,
	}
	for name, field := range overlay {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*field = v
		}
	}
	return a
}

// AccountFromEnv builds an Account from BASECAMP_* variables only.
func AccountFromEnv() Account {
	return Account{}.ApplyEnv()
}

// LoadAccount reads an Account from a YAML file:
//
//	account_id: "999999"
//	app_name: "My App (me@example.com)"
//	token: "..."
func LoadAccount(path string) (Account, error) {
	var a Account

	data, err := os.ReadFile(path)
	if err != nil {
		return a, fmt.Errorf("reading account file: %w", err)
	}
	if err := yaml.Unmarshal(data, &a); err != nil {
		return a, fmt.Errorf("parsing account file %s: %w", path, err)
	}
	return a, nil
}
