package info

import "github.com/alexisbeaulieu97/groundwork/internal/plugin"

// Class names of the info plugins.
const (
	PluginsInfoClass   = "gw_plugins_info"
	SignalsInfoClass   = "gw_signals_info"
	CommandsInfoClass  = "gw_commands_info"
	DocumentsInfoClass = "gw_documents_info"
)

// Classes returns the plugin classes of this package.
func Classes() []plugin.Class {
	return []plugin.Class{
		{Name: PluginsInfoClass, New: NewPluginsInfo},
		{Name: SignalsInfoClass, New: NewSignalsInfo},
		{Name: CommandsInfoClass, New: NewCommandsInfo},
		{Name: DocumentsInfoClass, New: NewDocumentsInfo},
	}
}
