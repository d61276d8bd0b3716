package config

// Host configuration keys.
const (
	// KeyPluginDir is the root directory scanned for alerter plugins.
	KeyPluginDir = "alerter.plugin.dir"
	// KeyMailEnabled controls whether the built-in email channel stays active once
	// at least one external alerter plugin has been loaded.
	KeyMailEnabled = "mail.enabled"

	KeyMailHost          = "mail.host"
	KeyMailPort          = "mail.port"
	KeyMailUser          = "mail.user"
	KeyMailPassword      = "mail.password"
	KeyMailSender        = "mail.sender"
	KeyMailRecipients    = "mail.recipients"
	KeyMailSubjectPrefix = "mail.subject.prefix"
)

// Plugin descriptor keys, read from conf/plugin.properties of every plugin directory.
const (
	KeyAlerterName         = "alerter.name"
	KeyAlerterClass        = "alerter.class"
	KeyAlerterExternalLibs = "alerter.external.classpaths"
)

const (
	DefaultPluginDir         = "plugins/alerter"
	DefaultMailEnabled       = false
	DefaultMailPort          = 25
	DefaultMailSubjectPrefix = "[alerthub]"
)

// MailConfig holds the settings of the built-in email channel.
type MailConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	// Sender is the From address of every message.
	Sender string
	// Recipients receive every alert sent through the email channel.
	Recipients    []string
	SubjectPrefix string
}

// MailConfigFrom reads the built-in email channel settings from src.
func MailConfigFrom(src Source) (MailConfig, error) {
	port, err := src.GetInt(KeyMailPort, DefaultMailPort)
	if err != nil {
		return MailConfig{}, err
	}
	return MailConfig{
		Host:          src.GetString(KeyMailHost, ""),
		Port:          port,
		User:          src.GetString(KeyMailUser, ""),
		Password:      src.GetString(KeyMailPassword, ""),
		Sender:        src.GetString(KeyMailSender, ""),
		Recipients:    src.GetStringList(KeyMailRecipients),
		SubjectPrefix: src.GetString(KeyMailSubjectPrefix, DefaultMailSubjectPrefix),
	}, nil
}
