package formmodel

import "log/slog"

// copyWidget copies the values of src into dst, matching children by id.
// Actions have nothing to copy. Uploaded parts stay with their owner unless
// move is set, in which case dst takes the part over from src.
// Values dst refuses are skipped.
func copyWidget(src, dst Widget, move bool, log *slog.Logger) {
	switch d := dst.(type) {
	case *Action:
		return

	case *Upload:
		s, ok := src.(*Upload)
		if !move || !ok || s.part == nil {
			return
		}
		p := s.part
		s.part = nil
		if err := d.SetValue(p); err != nil {
			s.part = p
			log.Warn("row move: upload not moved", "from", s.FullyQualifiedID(), "to", d.FullyQualifiedID(), "error", err)
		}
		return

	case *Repeater:
		s, ok := src.(*Repeater)
		if !ok {
			return
		}
		if err := d.resize(s.Size()); err != nil {
			log.Warn("row copy: resize repeater", "widget", d.FullyQualifiedID(), "error", err)
			return
		}
		for i, row := range s.rows {
			copyWidget(row, d.rows[i], move, log)
		}
		return

	case *Union:
		s, ok := src.(*Union)
		if !ok {
			return
		}
		for _, c := range s.Children() {
			if dc := d.lookupChild(c.ID()); dc != nil {
				copyWidget(c, dc, move, log)
			}
		}
		return

	case containerWidget:
		s, ok := src.(containerWidget)
		if !ok {
			return
		}
		for _, dc := range d.Children() {
			if sc := s.lookupChild(dc.ID()); sc != nil {
				copyWidget(sc, dc, move, log)
			}
		}
		return
	}

	if err := dst.SetValue(src.Value()); err != nil {
		log.Warn("row copy: value not copied", "from", src.FullyQualifiedID(), "to", dst.FullyQualifiedID(), "error", err)
	}
}
