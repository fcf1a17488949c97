package hardware

import (
	"fmt"
	"io"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

const mcp3008Max = 1023

// spiTx is the part of spi.Conn the ADC needs.
type spiTx interface {
	Tx(w, r []byte) error
}

// MCP3008 reads the 10-bit MCP3008 ADC over SPI.
type MCP3008 struct {
	conn   spiTx
	closer io.Closer
}

// OpenMCP3008 initializes the host drivers and connects to the ADC on the
// named SPI port ("" picks the first one available).
func OpenMCP3008(port string, speedHz int64) (*MCP3008, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	p, err := spireg.Open(port)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", port, err)
	}
	conn, err := p.Connect(physic.Frequency(speedHz)*physic.Hertz, spi.Mode0, 8)
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("connect spi: %w", err)
	}
	return &MCP3008{conn: conn, closer: p}, nil
}

// ReadRaw returns the single-ended conversion result (0..1023) of channel ch.
func (m *MCP3008) ReadRaw(ch int) (int, error) {
	if ch < 0 || ch > 7 {
		return 0, fmt.Errorf("mcp3008: channel %d out of range", ch)
	}
	w := []byte{0x01, byte(0x80 | ch<<4), 0x00}
	r := make([]byte, len(w))
	if err := m.conn.Tx(w, r); err != nil {
		return 0, fmt.Errorf("mcp3008: read channel %d: %w", ch, err)
	}
	return int(r[1]&0x03)<<8 | int(r[2]), nil
}

// ReadVolts scales a conversion of channel ch against vref.
func (m *MCP3008) ReadVolts(ch int, vref float64) (float64, error) {
	raw, err := m.ReadRaw(ch)
	if err != nil {
		return 0, err
	}
	return float64(raw) * vref / mcp3008Max, nil
}

func (m *MCP3008) Close() error {
	if m.closer == nil {
		return nil
	}
	return m.closer.Close()
}
