package main

import (
	"fmt"
	"time"

	"github.com/minkhant/sandaya/models"
	"gorm.io/gorm"
)

// membership management from the operator's shell; the admin chat
// commands do the same through the bot

type AddMemberCmd struct {
	TelegramID int64  `arg:"" help:"Telegram id of the member."`
	FirstName  string `help:"Display name for the member list."`
	Days       int    `default:"30" help:"Membership duration in days, measured from now."`
}

func (c *AddMemberCmd) Run(ctx *Context) error {
	db, err := gorm.Open(ctx.Dialector, &ctx.Config)
	if err != nil {
		return err
	}
	member, err := models.NewMembers(db).Add(c.TelegramID, c.FirstName, time.Duration(c.Days)*24*time.Hour)
	if err != nil {
		return err
	}
	fmt.Printf("member %d active until %s\n", member.TelegramID, member.ExpiryDate.Format("2006-01-02"))
	return nil
}

type BanMemberCmd struct {
	TelegramID int64 `arg:"" help:"Telegram id of the member."`
}

func (c *BanMemberCmd) Run(ctx *Context) error {
	db, err := gorm.Open(ctx.Dialector, &ctx.Config)
	if err != nil {
		return err
	}
	if err := models.NewMembers(db).Ban(c.TelegramID); err != nil {
		return err
	}
	fmt.Printf("member %d banned\n", c.TelegramID)
	return nil
}

type UnbanMemberCmd struct {
	TelegramID int64 `arg:"" help:"Telegram id of the member."`
}

func (c *UnbanMemberCmd) Run(ctx *Context) error {
	db, err := gorm.Open(ctx.Dialector, &ctx.Config)
	if err != nil {
		return err
	}
	if err := models.NewMembers(db).Unban(c.TelegramID); err != nil {
		return err
	}
	fmt.Printf("member %d unbanned\n", c.TelegramID)
	return nil
}
