package constant

import (
	"spl/lib/properties"
)

var (
	//runtime property

	RuntimeModeProperty       = properties.NewProperty[string]("mode", "spl work mode, ack or snapshot.", "ack")
	RuntimeLogLevelProperty   = properties.NewRequiredProperty[string]("log-level", "log-level")
	RuntimeStatusDirProperty  = properties.NewProperty[string]("status-dir", "status-dir", ".")
	RuntimeCheckpointProperty = properties.NewProperty[string]("checkpoint", "cron schedule of snapshot mode checkpoints, with seconds.", "@every 1m")

	//component property

	TypeProperty = properties.NewRequiredProperty[string]("type", "component type")

	SelectorProperty = properties.NewRequiredProperty[string]("select", "emit select")
)
