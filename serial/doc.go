// Package serial provides the I/O layer for the hdlc package: a Client that
// drives one HDLC link to a DLMS/COSEM meter over a TCP byte stream, and a
// Hub that manages many such clients in multi-drop setups.
//
// The transport is TCP because meters are commonly reached through
// serial-to-TCP bridges; the protocol itself is agnostic to the byte stream
// underneath.
//
// A typical exchange:
//
//	cfg, err := serial.NewConnectionConfig("10.0.0.5", 4059,
//		serial.WithClientAddress(0x10),
//		serial.WithServerPhysicalAddress(1, 17),
//	)
//	if err != nil {
//		return err
//	}
//
//	client := serial.NewClient(cfg)
//	if err := client.Connect(ctx); err != nil {
//		return err
//	}
//	defer client.Disconnect(ctx)
//
//	response, err := client.Send(ctx, telegram)
package serial
