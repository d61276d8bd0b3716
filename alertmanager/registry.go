package alertmanager

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/samber/lo"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
	"golang.org/x/xerrors"

	"github.com/curiostorage/alerthub/alertmanager/loader"
	"github.com/curiostorage/alerthub/alertmanager/plugin"
	"github.com/curiostorage/alerthub/deps/config"
)

// ErrInitializationAborted marks a registry that could not run the plugin
// pipeline at all and only serves the built-in email channel.
var ErrInitializationAborted = errors.New("alerter registry initialization aborted")

// ErrMailUnconfigured is returned by the email channel of a registry built
// without one.
var ErrMailUnconfigured = errors.New("email channel is not configured")

// OriginBuiltin is the descriptor origin of the built-in email channel.
const OriginBuiltin = "builtin"

// Registry indexes the alert channels by name. It is built once by
// NewRegistry and never modified afterwards, so concurrent reads need no locking.
type Registry struct {
	channels            map[string]*plugin.Descriptor
	mailFallbackEnabled bool

	loadErrs error
	initErr  error
}

type registryOptions struct {
	hostEntries map[string]interface{}
	opener      loader.LibraryOpener
}

type Option func(*registryOptions)

// WithHostEntries adds compiled-in entry types on top of plugin.Builtins.
func WithHostEntries(entries map[string]interface{}) Option {
	return func(o *registryOptions) {
		o.hostEntries = entries
	}
}

// WithLibraryOpener replaces the native shared-module loader.
func WithLibraryOpener(op loader.LibraryOpener) Option {
	return func(o *registryOptions) {
		o.opener = op
	}
}

// NewRegistry loads the alerter plugins found under the configured plugin
// directory and adds mail as the built-in email channel.
//
// It never fails: a broken plugin is skipped, and an error outside the
// per-plugin loop leaves a registry holding only the email channel, with the
// cause available from Err.
//
// A nil mail still registers "email", backed by a channel that fails every
// send with ErrMailUnconfigured.
func NewRegistry(cfg config.Source, mail plugin.Plugin, opts ...Option) *Registry {
	o := &registryOptions{opener: loader.NativeOpener{}}
	for _, opt := range opts {
		opt(o)
	}

	if mail == nil {
		log.Warnw("no email channel given, alerts to email will fail")
		mail = unconfiguredMail{}
	}

	r, err := loadRegistry(cfg, mail, o)
	if err != nil {
		log.Errorw("alerter registry initialization failed, only the email channel is available", "error", err)
		stats.Record(context.Background(), AlertMeasures.DegradedInits.M(1))
		return degradedRegistry(mail, err)
	}
	return r
}

func loadRegistry(cfg config.Source, mail plugin.Plugin, o *registryOptions) (r *Registry, err error) {
	defer func() {
		if p := recover(); p != nil {
			r = nil
			err = xerrors.Errorf("panic: %v", p)
		}
	}()

	if cfg == nil {
		return nil, xerrors.New("no configuration source")
	}

	pluginDir := cfg.GetString(config.KeyPluginDir, config.DefaultPluginDir)
	resolver := &loader.Resolver{
		Host:   loader.NewHost(plugin.Builtins(), o.hostEntries),
		Opener: o.opener,
	}

	res, err := loader.Load(pluginDir, resolver)
	if err != nil {
		return nil, xerrors.Errorf("loading alerter plugins from %s: %w", pluginDir, err)
	}
	recordLoad(res)

	channels := make(map[string]*plugin.Descriptor, len(res.Loaded)+1)
	for _, d := range res.Loaded {
		if prev, ok := channels[d.Name]; ok {
			log.Warnw("duplicate alerter name, later plugin wins", "name", d.Name, "replaced", prev.Origin, "by", d.Origin)
		}
		channels[d.Name] = d
	}

	var mailFallback bool
	if len(channels) == 0 {
		// email is the only channel left, it has to be active
		mailFallback = true
	} else {
		var ferr error
		mailFallback, ferr = cfg.GetBool(config.KeyMailEnabled, config.DefaultMailEnabled)
		if ferr != nil {
			log.Warnw("ignoring malformed mail fallback flag", "key", config.KeyMailEnabled, "default", config.DefaultMailEnabled, "error", ferr)
			mailFallback = config.DefaultMailEnabled
		}
	}

	if _, ok := channels[plugin.EmailChannel]; ok {
		log.Warnw("alerter plugin uses the reserved email name, replaced by the built-in email channel")
	}
	channels[plugin.EmailChannel] = &plugin.Descriptor{
		Name:    plugin.EmailChannel,
		Alerter: mail,
		Origin:  OriginBuiltin,
	}

	r = &Registry{
		channels:            channels,
		mailFallbackEnabled: mailFallback,
	}
	if res.Failures != nil {
		r.loadErrs = res.Failures.ErrorOrNil()
	}

	log.Infow("alerter registry ready",
		"dir", pluginDir,
		"candidates", res.Candidates,
		"channels", r.Names(),
		"mailFallback", mailFallback)
	return r, nil
}

func degradedRegistry(mail plugin.Plugin, cause error) *Registry {
	return &Registry{
		channels: map[string]*plugin.Descriptor{
			plugin.EmailChannel: {
				Name:    plugin.EmailChannel,
				Alerter: mail,
				Origin:  OriginBuiltin,
			},
		},
		mailFallbackEnabled: true,
		initErr:             &abortError{cause: cause},
	}
}

// abortError keeps the cause reachable through errors.Is/As next to
// ErrInitializationAborted.
type abortError struct {
	cause error
}

func (e *abortError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInitializationAborted, e.cause)
}

func (e *abortError) Unwrap() []error {
	return []error{ErrInitializationAborted, e.cause}
}

type unconfiguredMail struct{}

func (unconfiguredMail) SendAlert(*plugin.AlertPayload) error {
	return ErrMailUnconfigured
}

func recordLoad(res *loader.Result) {
	ctx := context.Background()
	stats.Record(ctx, AlertMeasures.PluginsLoaded.M(int64(len(res.Loaded))))
	if res.Failures == nil {
		return
	}
	for _, ferr := range res.Failures.Errors {
		_ = stats.RecordWithTags(ctx,
			[]tag.Mutator{tag.Upsert(reasonTag, loader.Reason(ferr))},
			AlertMeasures.PluginLoadFailures.M(1))
	}
}

// Lookup returns the channel registered under name.
func (r *Registry) Lookup(name string) (*plugin.Descriptor, bool) {
	d, ok := r.channels[name]
	return d, ok
}

// Names returns the registered channel names in sorted order.
func (r *Registry) Names() []string {
	names := lo.Keys(r.channels)
	sort.Strings(names)
	return names
}

// IsMailFallbackEnabled reports whether callers should dispatch to the email
// channel. The email channel is registered either way.
func (r *Registry) IsMailFallbackEnabled() bool {
	return r.mailFallbackEnabled
}

// LoadErrors returns the per-plugin failures of the initialization, if any.
func (r *Registry) LoadErrors() error {
	return r.loadErrs
}

// Err is non-nil when initialization was aborted and the registry only holds
// the email channel.
func (r *Registry) Err() error {
	return r.initErr
}
