// Package loader discovers alerter plugins in a directory tree and turns each
// of them into a ready alert channel.
//
// Layout of a plugin directory:
//
//	<root>/<plugin>/conf/plugin.properties    alerter.name, alerter.class, alerter.external.classpaths
//	<root>/<plugin>/conf/override.properties  optional, layered on top
//	<root>/<plugin>/lib/*.so                  optional private libraries
//
// Every candidate goes through ReadManifest, Resolver.Resolve and Instantiate.
// A failure in any step only drops that candidate.
package loader

import (
	"github.com/hashicorp/go-multierror"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/curiostorage/alerthub/alertmanager/plugin"
)

var log = logging.Logger("alerthub/alertloader")

// Result is the outcome of a Load.
type Result struct {
	// Loaded holds one descriptor per successful plugin, in scan order.
	Loaded []*plugin.Descriptor
	// Failures collects the per-plugin errors; nil when every candidate loaded.
	Failures *multierror.Error
	// Candidates is the number of plugin directories found.
	Candidates int
}

// Load scans root and loads every candidate plugin. The returned error is only
// set when root itself cannot be scanned.
func Load(root string, r *Resolver) (*Result, error) {
	dirs, err := ScanDir(root)
	if err != nil {
		return nil, err
	}

	res := &Result{Candidates: len(dirs)}
	for _, dir := range dirs {
		desc, err := loadOne(dir, r)
		if err != nil {
			log.Errorw("skipping alerter plugin", "dir", dir, "reason", Reason(err), "error", err)
			res.Failures = multierror.Append(res.Failures, err)
			continue
		}
		if desc == nil {
			continue
		}
		log.Infow("loaded alerter plugin", "name", desc.Name, "dir", dir, "origin", desc.Origin)
		res.Loaded = append(res.Loaded, desc)
	}
	return res, nil
}

func loadOne(dir string, r *Resolver) (desc *plugin.Descriptor, err error) {
	defer func() {
		if p := recover(); p != nil {
			desc = nil
			err = xerrors.Errorf("%s: panic while loading: %v: %w", dir, p, ErrInstantiationFailed)
		}
	}()

	m, err := ReadManifest(dir)
	if err != nil || m == nil {
		return nil, err
	}
	log.Infow("alerter plugin manifest", "dir", dir, "name", m.Name, "class", m.EntryType)

	resolved, err := r.Resolve(m)
	if err != nil {
		return nil, err
	}
	return Instantiate(m, resolved)
}
