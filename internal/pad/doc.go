// Package pad defines the configuration data model of the ratpad keypad.
//
// The types here are pure values: colors, key actions, key and mode
// configurations, the full application configuration snapshot, connection
// state, and the serial port descriptors reported by the transport. They
// carry validation but no I/O.
//
// # Wire format
//
// All types marshal to the JSON shapes exchanged with the pad daemon:
//
//	{
//	  "device_port": "/dev/ttyACM0",
//	  "device_rate": 115200,
//	  "colors": {"next": [0,0,255], "previous": [0,0,255], "select": [0,255,0], "brightness": 40},
//	  "modes": [
//	    {"key": "base", "title": "Base", "title_short": "BASE", "color": null,
//	     "keys": [{"label": "Copy", "action": {"type": "keypress", "key": "ctrl+c"}, "color": null}, null]}
//	  ]
//	}
//
// Empty key slots are encoded as null so positional addressing by index
// survives a round trip.
//
// # Mutation
//
// The bridge never edits an AppConfig in place. The mutation helpers on
// AppConfig (WriteMode, DeleteMode, ClearModes, ApplyColor) describe how the
// device applies a confirmed command and are used by the stub device.
package pad
