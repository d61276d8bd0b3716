/*
Package alertmanager holds the registry of alert channels the scheduler notifies when jobs fail or change state,
and the dispatcher that fans an alert out to them.

Channels come from two places:

 1. Alerter plugins: one directory per plugin under alerter.plugin.dir (default "plugins/alerter"), each with a
    conf/plugin.properties descriptor naming the channel (alerter.name) and its entry type (alerter.class).
    The entry type is looked up among the channels compiled into the binary first, then in the plugin's own
    shared libraries (lib/*.so and alerter.external.classpaths). See package loader.
 2. The built-in email channel, always registered under "email".

Mail fallback policy:

When no plugin loads, email is the only channel and is always active. Once at least one plugin loads, email stays
registered but is only dispatched to when mail.enabled=true. This lets an operator run plugins next to email while
rolling them out, then turn email off.

Implementing a New Plugin:

 1. Define a type that implements plugin.Plugin (SendAlert).
 2. Provide a constructor taking the plugin configuration, func(config.Source) (plugin.Plugin, error).
 3. Either add it to plugin.Builtins, or build it with -buildmode=plugin exporting the constructor and drop the
    .so into the plugin's lib directory.

Example descriptor:

	alerter.name=slack
	alerter.class=github.com/curiostorage/alerthub/alertmanager/plugin.SlackWebhook
	slack.webhook.url=https://hooks.slack.com/services/T000/B000/XXXX

Example shared-module plugin:

```go
package main

type Teams struct{ url string }

	func (t *Teams) SendAlert(data *plugin.AlertPayload) error {
		// channel specific sending logic
		return nil
	}

	func NewTeams(cfg config.Source) (plugin.Plugin, error) {
		return &Teams{url: cfg.GetString("teams.webhook.url", "")}, nil
	}

```
with alerter.class=example.com/teams.NewTeams.
*/
package alertmanager
