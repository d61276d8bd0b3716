package plugin

// PkgPath is the import path that qualifies the entry type names of the
// channels compiled into the binary.
const PkgPath = "github.com/curiostorage/alerthub/alertmanager/plugin"

// Builtins returns the constructors of every alert channel compiled into the
// binary, keyed by fully-qualified entry type name. A plugin directory can
// select one of them through alerter.class without shipping any library.
func Builtins() map[string]interface{} {
	return map[string]interface{}{
		PkgPath + ".SlackWebhook":           NewSlackWebhook,
		PkgPath + ".PagerDuty":              NewPagerDuty,
		PkgPath + ".PrometheusAlertManager": NewPrometheusAlertManager,
		PkgPath + ".LarkCustomBot":          NewLarkCustomBot,
	}
}
