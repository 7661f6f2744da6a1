package lib

import (
	//source
	_ "spl/lib/component/source/kafka"
	_ "spl/lib/component/source/mock"
	_ "spl/lib/component/source/spooldir"

	//operator
	_ "spl/lib/component/operator/sample"
	_ "spl/lib/component/operator/tengo"
	_ "spl/lib/component/operator/window"

	//sink
	_ "spl/lib/component/sink/echo"

	//emit
	_ "spl/lib/emit/replicating"
)
