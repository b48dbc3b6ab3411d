// internal/writer/influx/writer.go
package influx

import (
	"strconv"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/tamzrod/etatherm-modbus/internal/poller"
)

// PointWriter is the non-blocking write API surface this sink uses.
type PointWriter interface {
	WritePoint(point *write.Point)
}

// Writer turns each zone of a successful poll into one point.
type Writer struct {
	w           PointWriter
	measurement string
	device      string
}

func New(w PointWriter, measurement, device string) *Writer {
	return &Writer{w: w, measurement: measurement, device: device}
}

// Write never fails: delivery errors surface asynchronously on the write API.
func (w *Writer) Write(res poller.PollResult) error {
	if res.Err != nil {
		return nil
	}

	for _, z := range res.Zones {
		p := influxdb2.NewPoint(w.measurement,
			map[string]string{
				"device": w.device,
				"zone":   strconv.Itoa(z.Pos),
				"name":   z.Name,
			},
			map[string]interface{}{
				"current":  z.Current,
				"required": z.Required,
				"flag":     int(z.Flag),
			},
			res.At,
		)
		w.w.WritePoint(p)
	}
	return nil
}
