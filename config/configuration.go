package config

import (
	"context"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/gzizouseif24/xero-automation/payroll"
)

// Settings is the full application configuration. It is loaded once per
// process; a run reads a snapshot and mid-run edits only apply to the next
// run.
type Settings struct {
	Xero      XeroSettings      `yaml:"xero"`
	Database  DatabaseSettings  `yaml:"database"`
	Rules     RuleSettings      `yaml:"rules"`
	Mappings  MappingSettings   `yaml:"mappings"`
	Overtime  OvertimeSettings  `yaml:"overtime"`
	Artifacts ArtifactSettings  `yaml:"artifacts"`
	Slack     SlackSettings     `yaml:"slack"`
	Auth      AuthSettings      `yaml:"auth"`
}

type XeroSettings struct {
	BaseURL     string `yaml:"baseUrl"`
	AccessToken string `yaml:"accessToken"`
	TenantID    string `yaml:"tenantId"`
}

type DatabaseSettings struct {
	Host     string `yaml:"host"`
	Name     string `yaml:"name"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// DSN builds the MySQL connection string.
func (d DatabaseSettings) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Name)
}

type RuleSettings struct {
	// RegularHoursCap is the weekly regular-hours ceiling. Zero uses the
	// default of 40.
	RegularHoursCap float64 `yaml:"regularHoursCap"`
	// HolidayHours is the fixed value holiday days normalize to. Zero uses
	// the default of 8.
	HolidayHours float64 `yaml:"holidayHours"`
}

type MappingSettings struct {
	// EarningsRates maps hour type names (REGULAR, OVERTIME, TRAVEL,
	// HOLIDAY) to Xero earnings rate IDs. REGULAR is mandatory; HOLIDAY
	// falls back to REGULAR when absent.
	EarningsRates map[string]string `yaml:"earningsRates"`
	// TrackingOptions maps region display names to Xero tracking option IDs.
	TrackingOptions map[string]string `yaml:"trackingOptions"`
}

type OvertimeSettings struct {
	// Flags marks which employees have the overtime rate applied,
	// keyed by display name.
	Flags map[string]bool `yaml:"flags"`
	// Rates holds per-employee custom overtime rates.
	Rates map[string]float64 `yaml:"rates"`
}

type ArtifactSettings struct {
	// Dir is the local directory payload artifacts are written to.
	Dir string `yaml:"dir"`
	// S3Bucket, when set, mirrors artifacts to S3 instead of local disk.
	S3Bucket string `yaml:"s3Bucket"`
}

type SlackSettings struct {
	Token   string `yaml:"token"`
	Channel string `yaml:"channel"`
}

type AuthSettings struct {
	JWTSecret string `yaml:"jwtSecret"`
}

// Validate reports configuration gaps that must abort a run before any
// submission.
func (s Settings) Validate() error {
	if s.Xero.BaseURL == "" {
		return fmt.Errorf("xero.baseUrl is required")
	}
	if s.Mappings.EarningsRates[string(payroll.HourTypeRegular)] == "" {
		return fmt.Errorf("mappings.earningsRates.%s is required", payroll.HourTypeRegular)
	}
	return nil
}

// RunRules converts the settings snapshot into the pipeline's rule set.
func (s Settings) RunRules(overrides map[string]string) payroll.RunRules {
	opts := payroll.DefaultResolverOptions()
	opts.Overrides = overrides
	return payroll.RunRules{
		RegularCap:    s.Rules.RegularHoursCap,
		HolidayHours:  s.Rules.HolidayHours,
		Resolver:      opts,
		OvertimeFlags: s.Overtime.Flags,
		OvertimeRates: s.Overtime.Rates,
	}
}

// PayrollMappings converts the settings snapshot into builder mappings.
// Payroll calendar IDs come from the API at run time, not from config.
func (s Settings) PayrollMappings() payroll.Mappings {
	rates := make(map[payroll.HourType]string, len(s.Mappings.EarningsRates))
	for hourType, id := range s.Mappings.EarningsRates {
		rates[payroll.HourType(hourType)] = id
	}
	return payroll.Mappings{
		EarningsRates:   rates,
		TrackingOptions: s.Mappings.TrackingOptions,
	}
}

const (
	fileEnv      = "PAYROLL_CONFIG_FILE"
	ssmParamName = "payroll-automation"
)

var (
	once     sync.Once
	settings Settings
	loadErr  error
)

// Load fetches the settings once per process. A local YAML file named by
// PAYROLL_CONFIG_FILE wins; otherwise the SSM parameter is fetched and
// decrypted.
func Load(ctx context.Context) (Settings, error) {
	once.Do(func() {
		if path := os.Getenv(fileEnv); path != "" {
			settings, loadErr = loadFile(path)
			return
		}
		settings, loadErr = loadSSM(ctx)
	})
	return settings, loadErr
}

func loadFile(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

func loadSSM(ctx context.Context) (Settings, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("load aws config: %w", err)
	}

	client := ssm.NewFromConfig(cfg)

	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(ssmParamName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return Settings{}, fmt.Errorf("get parameter: %w", err)
	}

	return Parse([]byte(*out.Parameter.Value))
}

// Parse decodes a YAML settings document.
func Parse(data []byte) (Settings, error) {
	var parsed Settings
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return Settings{}, fmt.Errorf("unmarshal yaml: %w", err)
	}
	return parsed, nil
}
