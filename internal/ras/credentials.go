package ras

import (
	"rasbridge/internal/native"
)

// Credentials returns the saved credentials of an entry. Mask in the result
// reports which fields the native layer filled in.
func (c *Client) Credentials(phoneBook, entryName string) (Credentials, error) {
	const op = "Credentials"
	if entryName == "" {
		return Credentials{}, argError(op, "entryName", "empty")
	}
	var cr Credentials
	err := c.withBuffer(op, c.layoutOf(defRASCREDENTIALS).Size, func(buf *native.Buffer) error {
		rec, err := c.record(defRASCREDENTIALS, buf)
		if err != nil {
			return err
		}
		rec.SetSize()
		rec.SetU32("dwMask", CredUserName|CredPassword|CredDomain)
		code := c.call("RasGetCredentials", func() native.ResultCode {
			return c.api.GetCredentials(phoneBook, entryName, buf)
		}, phoneBook, entryName)
		if err := translate(op, code); err != nil {
			return err
		}
		cr = decodeCredentials(rec)
		return nil
	})
	return cr, err
}

// SetCredentials saves the fields of cr selected by cr.Mask.
func (c *Client) SetCredentials(phoneBook, entryName string, cr Credentials) error {
	return c.setCredentials("SetCredentials", phoneBook, entryName, cr, false)
}

// ClearCredentials removes the saved credentials selected by mask.
func (c *Client) ClearCredentials(phoneBook, entryName string, mask uint32) error {
	return c.setCredentials("ClearCredentials", phoneBook, entryName, Credentials{Mask: mask}, true)
}

func (c *Client) setCredentials(op, phoneBook, entryName string, cr Credentials, remove bool) error {
	if entryName == "" {
		return argError(op, "entryName", "empty")
	}
	if cr.Mask == 0 {
		return argError(op, "Mask", "no fields selected")
	}
	return c.withBuffer(op, c.layoutOf(defRASCREDENTIALS).Size, func(buf *native.Buffer) error {
		rec, err := c.record(defRASCREDENTIALS, buf)
		if err != nil {
			return err
		}
		if err := encodeCredentials(rec, cr); err != nil {
			return argError(op, "credentials", err.Error())
		}
		code := c.call("RasSetCredentials", func() native.ResultCode {
			return c.api.SetCredentials(phoneBook, entryName, buf, remove)
		}, phoneBook, entryName, cr.Mask, remove)
		return translate(op, code)
	})
}

// DialParams returns the saved dial parameters of an entry and whether a
// password was saved with them.
func (c *Client) DialParams(phoneBook, entryName string) (DialParams, bool, error) {
	const op = "DialParams"
	if entryName == "" {
		return DialParams{}, false, argError(op, "entryName", "empty")
	}
	var (
		p           DialParams
		hasPassword bool
	)
	err := c.withBuffer(op, c.layoutOf(defRASDIALPARAMS).Size, func(buf *native.Buffer) error {
		rec, err := c.record(defRASDIALPARAMS, buf)
		if err != nil {
			return err
		}
		if err := encodeDialParams(rec, DialParams{EntryName: entryName}, 0); err != nil {
			return argError(op, "entryName", err.Error())
		}
		code := c.call("RasGetEntryDialParams", func() native.ResultCode {
			return c.api.GetEntryDialParams(phoneBook, buf, &hasPassword)
		}, phoneBook, entryName)
		if err := translate(op, code); err != nil {
			return err
		}
		p = decodeDialParams(rec)
		return nil
	})
	return p, hasPassword, err
}

// SetDialParams saves dial parameters for p.EntryName. With removePassword
// the saved password is deleted instead of replaced.
func (c *Client) SetDialParams(phoneBook string, p DialParams, removePassword bool) error {
	const op = "SetDialParams"
	if p.EntryName == "" {
		return argError(op, "EntryName", "empty")
	}
	return c.withBuffer(op, c.layoutOf(defRASDIALPARAMS).Size, func(buf *native.Buffer) error {
		rec, err := c.record(defRASDIALPARAMS, buf)
		if err != nil {
			return err
		}
		if err := encodeDialParams(rec, p, 0); err != nil {
			return argError(op, "params", err.Error())
		}
		code := c.call("RasSetEntryDialParams", func() native.ResultCode {
			return c.api.SetEntryDialParams(phoneBook, buf, removePassword)
		}, phoneBook, p.EntryName, removePassword)
		return translate(op, code)
	})
}
