package reporting

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/osteele/liquid"

	"github.com/ignite/admissions-crm/internal/domain"
	"github.com/ignite/admissions-crm/internal/pkg/logger"
)

// Sink receives the artifact of every scheduled execution.
type Sink interface {
	Deliver(ctx context.Context, def *domain.ReportDefinition, path string) error
}

// LogSink records the artifact and leaves recipients uncontacted.
type LogSink struct{}

func (LogSink) Deliver(_ context.Context, def *domain.ReportDefinition, path string) error {
	logger.Info("report artifact ready, recipients not contacted",
		"report_id", def.ID,
		"path", path,
		"recipients", len(def.Recipients),
	)
	return nil
}

// Archiver copies an artifact somewhere durable and returns its location.
type Archiver interface {
	SaveArtifact(ctx context.Context, path string) (string, error)
}

// ArchiveSink stores artifacts through an Archiver (local directory or S3).
type ArchiveSink struct {
	archive Archiver
}

// NewArchiveSink wraps an Archiver.
func NewArchiveSink(a Archiver) *ArchiveSink {
	return &ArchiveSink{archive: a}
}

func (s *ArchiveSink) Deliver(ctx context.Context, def *domain.ReportDefinition, path string) error {
	location, err := s.archive.SaveArtifact(ctx, path)
	if err != nil {
		return fmt.Errorf("archive report %s: %w", def.ID, err)
	}
	logger.Info("report artifact archived", "report_id", def.ID, "location", location)
	return nil
}

// MultiSink delivers to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Deliver(ctx context.Context, def *domain.ReportDefinition, path string) error {
	var errs []error
	for _, s := range m {
		if err := s.Deliver(ctx, def, path); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// EmailSender is the part of the SES v2 client SESSink uses.
type EmailSender interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESConfig configures report notifications.
type SESConfig struct {
	Region    string
	AccessKey string
	SecretKey string
	FromEmail string
	FromName  string
	Subject   string
	Body      string
}

const defaultBody = `Hola,

El reporte "{{ report.nombre }}" ({{ report.tipo }}, {{ report.frecuencia }}) se generó el {{ generated_at }}.
Archivo: {{ file }}
`

// SESSink notifies a definition's recipients that its artifact is ready.
// Subject and body are Liquid templates rendered with report, file and
// generated_at.
type SESSink struct {
	client  EmailSender
	from    string
	subject string
	body    string

	engine *liquid.Engine
	cache  sync.Map // map[string]*liquid.Template
}

// NewSESSink creates a sink around an SES client.
func NewSESSink(client EmailSender, cfg SESConfig) *SESSink {
	from := cfg.FromEmail
	if cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail)
	}
	body := cfg.Body
	if body == "" {
		body = defaultBody
	}
	return &SESSink{
		client:  client,
		from:    from,
		subject: cfg.Subject,
		body:    body,
		engine:  liquid.NewEngine(),
	}
}

// NewSESClient builds an SES v2 client, with static credentials when given.
func NewSESClient(ctx context.Context, cfg SESConfig) (*sesv2.Client, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return sesv2.NewFromConfig(awsCfg), nil
}

func (s *SESSink) render(src string, b liquid.Bindings) (string, error) {
	if cached, ok := s.cache.Load(src); ok {
		return cached.(*liquid.Template).RenderString(b)
	}
	tpl, err := s.engine.ParseString(src)
	if err != nil {
		return "", err
	}
	s.cache.Store(src, tpl)
	return tpl.RenderString(b)
}

func (s *SESSink) Deliver(ctx context.Context, def *domain.ReportDefinition, path string) error {
	if len(def.Recipients) == 0 {
		return nil
	}
	b := liquid.Bindings{
		"report": map[string]any{
			"id":         def.ID,
			"nombre":     def.Name,
			"tipo":       string(def.Type),
			"frecuencia": string(def.Frequency),
		},
		"file":         filepath.Base(path),
		"generated_at": fileStamp(path),
	}
	subject, err := s.render(s.subject, b)
	if err != nil {
		return fmt.Errorf("render report email subject: %w", err)
	}
	body, err := s.render(s.body, b)
	if err != nil {
		return fmt.Errorf("render report email body: %w", err)
	}

	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: def.Recipients},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(strings.TrimSpace(subject)), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
				},
			},
		},
		EmailTags: []types.MessageTag{
			{Name: aws.String("report_id"), Value: aws.String(def.ID)},
		},
	})
	if err != nil {
		return fmt.Errorf("send report email: %w", err)
	}

	messageID := ""
	if out != nil && out.MessageId != nil {
		messageID = *out.MessageId
	}
	for _, r := range def.Recipients {
		logger.Info("report notification sent", "report_id", def.ID, "recipient", r, "message_id", messageID)
	}
	return nil
}

// fileStamp extracts the timestamp part of an artifact name.
func fileStamp(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if i := strings.LastIndex(name, "_"); i >= 0 {
		return name[i+1:]
	}
	return name
}
