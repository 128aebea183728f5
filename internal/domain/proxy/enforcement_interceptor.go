package proxy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Sentinel-Gate/toolgate/internal/domain/audit"
	"github.com/Sentinel-Gate/toolgate/internal/domain/operation"
	"github.com/Sentinel-Gate/toolgate/internal/domain/policy"
	"github.com/Sentinel-Gate/toolgate/pkg/mcp"
)

// Passthrough reasons reported to the metrics recorder.
const (
	PassthroughUndecodable     = "undecodable"
	PassthroughNotToolCall     = "not_tool_call"
	PassthroughMissingToolName = "missing_tool_name"
)

// MetricsServiceDerived is the service label of governed calls whose
// service was derived from the tool identifier. Derived services come from
// client-supplied names, so they are not used as label values.
const MetricsServiceDerived = "derived"

// Classifier resolves the service and operation category of a tool call.
// *operation.Lexicon implements it.
type Classifier interface {
	operation.Classifier
	ResolveService(explicit, toolName string) string
}

// TableProvider returns the policy table currently in force. It is called
// once per governed call, so a reload takes effect between calls.
type TableProvider interface {
	Active() *policy.Table
}

// MetricsRecorder counts pipeline outcomes.
type MetricsRecorder interface {
	RecordGovernedCall(service string, op operation.Category, decision audit.Decision)
	RecordPassthrough(reason string)
}

// GovernedCall is a tools/call request that was classified and decided.
// It lives for one Intercept invocation.
type GovernedCall struct {
	RequestID string
	ToolName  string
	Service   string
	Operation operation.Category
	Decision  policy.Decision
}

// EnforcementInterceptor governs tools/call requests. It classifies each
// call, looks the (service, operation) pair up in the active policy table,
// records an audit event, and then either passes the message on or blocks
// it with a *GovernanceDenyError. All other traffic passes through
// untouched and unaudited.
type EnforcementInterceptor struct {
	classifier Classifier
	tables     TableProvider
	recorder   audit.Recorder
	next       MessageInterceptor
	logger     *slog.Logger

	service   string
	sessionID string
	metrics   MetricsRecorder
	tracer    trace.Tracer
	now       func() time.Time
}

// EnforcementOption configures an EnforcementInterceptor.
type EnforcementOption func(*EnforcementInterceptor)

// WithService sets the explicit service name of the proxied backend. It
// takes precedence over deriving the service from tool identifiers.
func WithService(service string) EnforcementOption {
	return func(e *EnforcementInterceptor) {
		e.service = service
	}
}

// WithSessionID sets the session ID stamped on audit events.
func WithSessionID(id string) EnforcementOption {
	return func(e *EnforcementInterceptor) {
		e.sessionID = id
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) EnforcementOption {
	return func(e *EnforcementInterceptor) {
		e.metrics = m
	}
}

// WithTracer sets the tracer used for one span per governed call.
func WithTracer(t trace.Tracer) EnforcementOption {
	return func(e *EnforcementInterceptor) {
		e.tracer = t
	}
}

// NewEnforcementInterceptor creates an EnforcementInterceptor.
func NewEnforcementInterceptor(
	classifier Classifier,
	tables TableProvider,
	recorder audit.Recorder,
	next MessageInterceptor,
	logger *slog.Logger,
	opts ...EnforcementOption,
) *EnforcementInterceptor {
	e := &EnforcementInterceptor{
		classifier: classifier,
		tables:     tables,
		recorder:   recorder,
		next:       next,
		logger:     logger,
		sessionID:  uuid.NewString(),
		tracer:     noop.NewTracerProvider().Tracer(""),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Intercept implements MessageInterceptor.
func (e *EnforcementInterceptor) Intercept(ctx context.Context, msg *mcp.Message) (*mcp.Message, error) {
	if msg.Decoded == nil {
		e.passthrough(PassthroughUndecodable)
		return e.next.Intercept(ctx, msg)
	}
	if !msg.IsToolCall() {
		e.passthrough(PassthroughNotToolCall)
		return e.next.Intercept(ctx, msg)
	}

	names := msg.ToolNames()
	if len(names) == 0 {
		e.logger.Warn("tools/call without tool name, passing through unclassified",
			"request_id", requestID(msg),
		)
		e.passthrough(PassthroughMissingToolName)
		return e.next.Intercept(ctx, msg)
	}
	if msg.ToolName() == "" {
		e.logger.Warn("tools/call has no exact params.name, governing its case variants",
			"request_id", requestID(msg),
			"tools", names,
		)
	}

	ctx, span := e.tracer.Start(ctx, mcp.MethodToolsCall, trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	table := e.tables.Active()
	call := e.decide(table, requestID(msg), names)
	decision := audit.DecisionAllowed
	if !call.Decision.Allowed() {
		decision = audit.DecisionDenied
	}

	span.SetAttributes(
		attribute.String("toolgate.tool", call.ToolName),
		attribute.String("toolgate.service", call.Service),
		attribute.String("toolgate.operation", string(call.Operation)),
		attribute.String("toolgate.decision", string(decision)),
		attribute.String("toolgate.policy_version", table.Version()),
	)

	e.record(ctx, call, decision, table.Version(), msg.Timestamp)
	if e.metrics != nil {
		e.metrics.RecordGovernedCall(e.metricsService(), call.Operation, decision)
	}

	if decision == audit.DecisionDenied {
		err := &GovernanceDenyError{Call: call}
		span.SetStatus(codes.Error, err.Error())
		e.logger.Debug("tool call denied by policy",
			"tool", call.ToolName,
			"service", call.Service,
			"operation", call.Operation,
			"rule", call.Decision.Rule,
		)
		return nil, err
	}

	e.logger.Debug("tool call allowed by policy",
		"tool", call.ToolName,
		"service", call.Service,
		"operation", call.Operation,
		"rule", call.Decision.Rule,
	)
	return e.next.Intercept(ctx, msg)
}

// decide classifies and looks up each candidate tool name. The exact
// params.name comes first; further names are case variants of the key that
// some backends would act on. The first denied candidate wins, otherwise
// the call is governed as the first candidate.
func (e *EnforcementInterceptor) decide(table *policy.Table, reqID string, names []string) GovernedCall {
	var first GovernedCall
	for i, name := range names {
		call := GovernedCall{
			RequestID: reqID,
			ToolName:  name,
			Service:   e.classifier.ResolveService(e.service, name),
			Operation: e.classifier.Classify(name),
		}
		call.Decision = table.Lookup(call.Service, call.Operation)
		if !call.Decision.Allowed() {
			if i > 0 {
				e.logger.Warn("tools/call carries a case variant of params.name that is denied",
					"request_id", reqID,
					"tool", name,
				)
			}
			return call
		}
		if i == 0 {
			first = call
		}
	}
	return first
}

// record emits the audit event. A recorder failure is logged and does not
// change the decision.
func (e *EnforcementInterceptor) record(ctx context.Context, call GovernedCall, decision audit.Decision, version string, received time.Time) {
	if received.IsZero() {
		received = e.now()
	}
	event := audit.Event{
		ID:            uuid.NewString(),
		SessionID:     e.sessionID,
		Timestamp:     received.UTC(),
		ToolName:      call.ToolName,
		Service:       call.Service,
		Operation:     string(call.Operation),
		Decision:      decision,
		Reason:        call.Decision.Reason,
		RequestID:     call.RequestID,
		PolicyVersion: version,
	}
	if err := e.recorder.Record(ctx, event); err != nil {
		e.logger.Error("failed to record audit event",
			"error", err,
			"event_id", event.ID,
			"tool", call.ToolName,
		)
	}
}

func (e *EnforcementInterceptor) metricsService() string {
	if e.service != "" {
		return e.service
	}
	return MetricsServiceDerived
}

func (e *EnforcementInterceptor) passthrough(reason string) {
	if e.metrics != nil {
		e.metrics.RecordPassthrough(reason)
	}
}

// requestID renders the JSON-RPC id for correlation, "" for notifications.
func requestID(msg *mcp.Message) string {
	req := msg.Request()
	if req == nil {
		return ""
	}
	// ID.Raw() returns the underlying value (string, int64, or nil)
	id := req.ID.Raw()
	if id == nil {
		return ""
	}
	return fmt.Sprintf("%v", id)
}

// Compile-time checks.
var (
	_ MessageInterceptor = (*EnforcementInterceptor)(nil)
	_ Classifier         = (*operation.Lexicon)(nil)
)
