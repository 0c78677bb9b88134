package clickhouse

import "github.com/chdash/chdash/utils"

var bytesP = utils.BytesBufferPool{}
