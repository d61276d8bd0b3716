package alertmanager

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/go-multierror"
	logging "github.com/ipfs/go-log/v2"
	"github.com/samber/lo"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
	"golang.org/x/xerrors"

	"github.com/curiostorage/alerthub/alertmanager/plugin"
)

var log = logging.Logger("alerthub/alertmanager")

// ErrUnknownChannel is returned by AlertTo for a name the registry does not hold.
var ErrUnknownChannel = errors.New("unknown alert channel")

var errNilPayload = errors.New("nil alert payload")

// Dispatcher sends alerts through the channels of a Registry, honoring its
// mail fallback policy.
type Dispatcher struct {
	reg *Registry
}

func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{reg: reg}
}

// Channels returns the channel names Alert sends to: every registered channel,
// with email only when the mail fallback is enabled.
func (d *Dispatcher) Channels() []string {
	return lo.Filter(d.reg.Names(), func(name string, _ int) bool {
		return name != plugin.EmailChannel || d.reg.IsMailFallbackEnabled()
	})
}

// Alert sends data to every active channel. A failing channel does not stop
// the others; all failures are returned together.
func (d *Dispatcher) Alert(data *plugin.AlertPayload) error {
	data, err := stamp(data)
	if err != nil {
		return err
	}

	var merr *multierror.Error
	for _, name := range d.Channels() {
		desc, _ := d.reg.Lookup(name)
		if err := d.send(desc, data); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}

// AlertTo sends data to a single named channel, regardless of the mail
// fallback policy.
func (d *Dispatcher) AlertTo(name string, data *plugin.AlertPayload) error {
	desc, ok := d.reg.Lookup(name)
	if !ok {
		return xerrors.Errorf("%s: %w", name, ErrUnknownChannel)
	}
	data, err := stamp(data)
	if err != nil {
		return err
	}
	return d.send(desc, data)
}

// stamp returns a copy of data with the alert time set; the caller's payload
// is left untouched.
func stamp(data *plugin.AlertPayload) (*plugin.AlertPayload, error) {
	if data == nil {
		return nil, errNilPayload
	}
	cp := *data
	if cp.Time.IsZero() {
		cp.Time = time.Now()
	}
	return &cp, nil
}

func (d *Dispatcher) send(desc *plugin.Descriptor, data *plugin.AlertPayload) (err error) {
	ctx, _ := tag.New(context.Background(), tag.Upsert(channelTag, desc.Name))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = xerrors.Errorf("alert channel %s panicked: %v", desc.Name, r)
		}
		AlertMeasures.SendDuration.WithLabelValues(desc.Name).Observe(time.Since(start).Seconds())
		if err != nil {
			log.Errorw("Error sending alert", "channel", desc.Name, "origin", desc.Origin, "error", err)
			stats.Record(ctx, AlertMeasures.AlertsFailed.M(1))
			return
		}
		stats.Record(ctx, AlertMeasures.AlertsSent.M(1))
	}()

	if desc.Alerter == nil {
		return xerrors.Errorf("alert channel %s has no alerter", desc.Name)
	}
	if err := desc.Alerter.SendAlert(data); err != nil {
		return xerrors.Errorf("alert channel %s: %w", desc.Name, err)
	}
	return nil
}
